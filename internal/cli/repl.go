package cli

import (
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

func (a *App) repl(ctx context.Context) {
	for {
		fmt.Print("pv> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn("Commands: collections, create, ingest <files...>, add <collection> <files...>,")
			printlnFn("          list <collection>, show <collection> <n> <out>, delete <collection> <n>,")
			printlnFn("          rmcol <collection>, protect <collection>, unprotect <collection>,")
			printlnFn("          unlock <collection>, chat <text>, chathistory, chatclear, erase, exit")

		case "collections":
			a.listCollections(ctx)

		case "create":
			a.createCollection(ctx, args)

		case "ingest":
			a.ingest(ctx, args)

		case "add":
			a.addToCollection(ctx, args)

		case "l", "list":
			a.listItems(ctx, args)

		case "show":
			a.showItem(ctx, args)

		case "delete":
			a.deleteItem(ctx, args)

		case "rmcol":
			a.deleteCollection(ctx, args)

		case "protect":
			a.protect(ctx, args)

		case "unprotect":
			a.unprotect(ctx, args)

		case "unlock":
			a.unlock(ctx, args)

		case "chat":
			a.chatTurn(ctx, args)

		case "chathistory":
			a.chatHistory(ctx)

		case "chatclear":
			a.chatClear(ctx)

		case "erase":
			a.erase(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
