// Package games holds the game families shown as tabs in the site header.
package games

import "strings"

// Game is one tab of the header navigation.
type Game struct {
	Key         string
	Name        string
	ShortName   string
	Color       string
	BgColor     string
	HoverColor  string
	Icon        string
	Description string
}

// DefaultKey is the tab highlighted when the current page is not a game page.
const DefaultKey = "osrs"

var catalog = []Game{
	{
		Key:         "osrs",
		Name:        "Old School RuneScape",
		ShortName:   "OSRS",
		Color:       "text-green-400",
		BgColor:     "bg-green-500",
		HoverColor:  "hover:bg-green-600",
		Icon:        "⚔️",
		Description: "Navigate through the OSRS Wiki",
	},
	{
		Key:         "poe",
		Name:        "Path of Exile",
		ShortName:   "PoE",
		Color:       "text-orange-400",
		BgColor:     "bg-orange-500",
		HoverColor:  "hover:bg-orange-600",
		Icon:        "🔥",
		Description: "Navigate through the Path of Exile Wiki",
	},
	{
		Key:         "minecraft",
		Name:        "Minecraft",
		ShortName:   "MC",
		Color:       "text-emerald-400",
		BgColor:     "bg-emerald-500",
		HoverColor:  "hover:bg-emerald-600",
		Icon:        "⛏️",
		Description: "Navigate through the Minecraft Wiki",
	},
	{
		Key:         "terraria",
		Name:        "Terraria",
		ShortName:   "Terraria",
		Color:       "text-amber-400",
		BgColor:     "bg-amber-500",
		HoverColor:  "hover:bg-amber-600",
		Icon:        "🏗️",
		Description: "Navigate through the Terraria Wiki",
	},
	{
		Key:         "fandom",
		Name:        "Fandom",
		ShortName:   "Fandom",
		Color:       "text-blue-400",
		BgColor:     "bg-blue-500",
		HoverColor:  "hover:bg-blue-600",
		Icon:        "🌐",
		Description: "Navigate through Fandom Wikis",
	},
	{
		Key:         "wiki-gg",
		Name:        "Wiki.gg",
		ShortName:   "Wiki.gg",
		Color:       "text-purple-400",
		BgColor:     "bg-purple-500",
		HoverColor:  "hover:bg-purple-600",
		Icon:        "🎮",
		Description: "Navigate through Wiki.gg",
	},
}

// List returns the games in header order.
func List() []Game {
	return append([]Game(nil), catalog...)
}

// Lookup returns the game registered under key.
func Lookup(key string) (Game, bool) {
	for _, g := range catalog {
		if g.Key == key {
			return g, true
		}
	}
	return Game{}, false
}

// CurrentPage returns the game key for a page path: the file name of the last
// segment without its .html suffix, or DefaultKey when that is not a game.
func CurrentPage(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	name := path[strings.LastIndex(path, "/")+1:]
	name = strings.TrimSuffix(name, ".html")
	if _, ok := Lookup(name); ok {
		return name
	}
	return DefaultKey
}

// Current returns the game for a page path, falling back to DefaultKey.
func Current(path string) Game {
	g, _ := Lookup(CurrentPage(path))
	return g
}
