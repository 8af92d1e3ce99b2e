package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/figure"
	"figurebuilder.app/internal/metadata"
	persistlog "figurebuilder.app/internal/persistence/log"
	"figurebuilder.app/internal/protocol"
	"figurebuilder.app/internal/session"
	"figurebuilder.app/internal/transport/ws"
)

func main() {
	var (
		eventsDir = flag.String("events", "", "events dir containing events-*.jsonl.zst")
		configDir = flag.String("configs", "./configs", "catalog directory")
		metaPath  = flag.String("metadata", "./configs/metadata.json", "metadata document (.json or .json.zst)")
	)
	flag.Parse()

	if *eventsDir == "" {
		fmt.Fprintln(os.Stderr, "missing -events")
		os.Exit(2)
	}

	cat, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	meta, err := metadata.Load(*metaPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load metadata:", err)
		os.Exit(1)
	}

	files, err := listEventFiles(*eventsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	r := newReplayer(session.Env{
		Catalog:  cat,
		Metadata: meta,
		Imager:   figure.Nitro,
		Links:    figure.DefaultLinks(),
	})
	for _, path := range files {
		evs, err := persistlog.ReadEvents(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read events:", err)
			os.Exit(1)
		}
		for _, ev := range evs {
			if err := r.apply(ev); err != nil {
				fmt.Fprintf(os.Stderr, "replay %s: %v\n", filepath.Base(path), err)
				os.Exit(1)
			}
		}
	}
	fmt.Printf("replay ok: checked=%s skipped=%s sessions=%s\n",
		humanize.Comma(int64(r.checked)), humanize.Comma(int64(r.skipped)), humanize.Comma(int64(len(r.sessions))))
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-10s %s\n", t, humanize.Comma(int64(r.byType[t])))
	}
}

func listEventFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// replayer re-applies recorded requests to fresh workspaces and checks that
// each one gets the recorded outcome. Card keys are regenerated on LOAD, so
// recorded keys are translated per session.
type replayer struct {
	env      session.Env
	sessions map[string]*replaySession
	byType   map[string]int
	checked  int
	skipped  int
}

type replaySession struct {
	ws   *session.Workspace
	keys map[string]string
}

func newReplayer(env session.Env) *replayer {
	return &replayer{
		env:      env,
		sessions: map[string]*replaySession{},
		byType:   map[string]int{},
	}
}

func (r *replayer) apply(ev ws.Event) error {
	// Protocol-level rejections carry no replayable request.
	if ev.Code == protocol.ErrProtoBadRequest || ev.Code == protocol.ErrProtoVersion {
		r.skipped++
		return nil
	}
	s := r.sessions[ev.Session]
	if s == nil {
		s = &replaySession{ws: session.New(r.env), keys: map[string]string{}}
		r.sessions[ev.Session] = s
	}

	msg, err := json.Marshal(request(ev, s.key(ev.CardKey)))
	if err != nil {
		return err
	}
	replies := ws.Apply(s.ws, msg)
	ack, ok := replies[0].(protocol.AckMsg)
	if !ok {
		return fmt.Errorf("req %s: first reply is %T", ev.ReqID, replies[0])
	}
	if ack.Accepted != ev.Accepted || ack.Code != ev.Code {
		return fmt.Errorf("req %s (%s): got accepted=%v code=%q, recorded accepted=%v code=%q",
			ev.ReqID, ev.Type, ack.Accepted, ack.Code, ev.Accepted, ev.Code)
	}
	if ev.Type == protocol.TypeLoad && ack.Accepted && len(replies) > 1 {
		if v, ok := replies[1].(protocol.ViewMsg); ok {
			s.keys[ev.CardKey] = v.CardKey
		}
	}
	r.checked++
	r.byType[ev.Type]++
	return nil
}

func (s *replaySession) key(recorded string) string {
	if k, ok := s.keys[recorded]; ok {
		return k
	}
	return recorded
}

func request(ev ws.Event, cardKey string) map[string]any {
	m := map[string]any{
		"type":             ev.Type,
		"protocol_version": protocol.Version,
		"req_id":           ev.ReqID,
	}
	switch ev.Type {
	case protocol.TypeLoad:
		if ev.TokenID != nil {
			m["token_id"] = *ev.TokenID
		}
	case protocol.TypeSetOwned:
		if ev.TokenIDs != nil {
			m["token_ids"] = ev.TokenIDs
		}
		if ev.Payload != "" {
			m["payload"] = ev.Payload
		}
	default:
		m["card_key"] = cardKey
		switch ev.Type {
		case protocol.TypeSelect:
			m["trait"] = ev.Trait
			m["value"] = ev.Value
		case protocol.TypeRestore:
			m["trait"] = ev.Trait
		}
	}
	return m
}
