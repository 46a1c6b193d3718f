// linkcheck parses t.me links from the command line and prints what the
// bot would make of them. Handy for checking link shapes without
// starting the bot.
package main

import (
	"fmt"
	"os"

	"github.com/tawhid120/Save-restricted-content-bot/internal/link"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: linkcheck <link> [<link>...]")
		os.Exit(0)
	}

	parser := link.NewParser(link.PolicyAll)
	failed := false
	for _, raw := range os.Args[1:] {
		loc := parser.Parse(raw)
		if loc == nil {
			fmt.Printf("❌ %s: not a message link\n", raw)
			failed = true
			continue
		}

		switch {
		case loc.Single():
			fmt.Printf("✅ %s: kind=%s messages=%d\n", loc, loc.Kind, loc.Start)
		default:
			fmt.Printf("✅ %s: kind=%s range=%d-%d (%d messages)\n", loc, loc.Kind, loc.Start, loc.End, loc.Size())
		}
		if loc.Private() {
			fmt.Printf("   chat id %d (bot must be a member)\n", loc.ChatID)
		}
	}

	if failed {
		os.Exit(1)
	}
}
