package figure

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultDirection is the initial body and head direction.
const DefaultDirection = 4

// Rotate steps a direction in 1..8 one position.
func Rotate(direction int) int {
	return (direction+6)%8 + 1
}

// Imager is an external figure rendering endpoint. Base ends with the figure
// query parameter; the figure string is appended verbatim.
type Imager struct {
	Name string `json:"name" yaml:"name"`
	Base string `json:"base" yaml:"base"`
}

var (
	Nitro = Imager{Name: "nitro", Base: "https://imager.habboon.pw/?size=l&figure="}
	Habbo = Imager{Name: "habbo", Base: "https://www.habbo.com/habbo-imaging/avatarimage?size=l&figure="}
)

// Imagers lists the built-in rendering endpoints.
func Imagers() []Imager { return []Imager{Nitro, Habbo} }

func ImagerByName(name string) (Imager, bool) {
	for _, im := range Imagers() {
		if strings.EqualFold(im.Name, name) {
			return im, true
		}
	}
	return Imager{}, false
}

func (im Imager) URL(figure string, direction, headDirection int) string {
	return fmt.Sprintf("%s%s&direction=%d&head_direction=%d", im.Base, figure, direction, headDirection)
}

// Links builds the per-token marketplace and image URLs.
type Links struct {
	MarketplaceBase string `yaml:"marketplace_base" env:"MARKETPLACE_BASE"`
	Contract        string `yaml:"contract" env:"CONTRACT"`
	TokenImageBase  string `yaml:"token_image_base" env:"TOKEN_IMAGE_BASE"`
}

func DefaultLinks() Links {
	return Links{
		MarketplaceBase: "https://opensea.io/assets/ethereum",
		Contract:        "0x8a1bbef259b00ced668a8c69e50d92619c672176",
		TokenImageBase:  "https://nft-tokens.habbo.com/avatars/images",
	}
}

func (l Links) Marketplace(id int) string {
	return strings.TrimRight(l.MarketplaceBase, "/") + "/" + l.Contract + "/" + strconv.Itoa(id)
}

func (l Links) TokenImage(id int) string {
	return strings.TrimRight(l.TokenImageBase, "/") + "/" + strconv.Itoa(id) + ".png"
}
