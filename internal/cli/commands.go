package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/ingest"
	"github.com/dmitrijs2005/photovault/internal/vault"
)

// findCollection resolves arg against the stored collections by exact
// name, then by ID prefix.
func (a *App) findCollection(ctx context.Context, arg string) (vault.Collection, error) {
	collections, err := a.vault.ListCollections(ctx)
	if err != nil {
		return vault.Collection{}, err
	}
	for _, c := range collections {
		if c.Name == arg {
			return c, nil
		}
	}
	for _, c := range collections {
		if strings.HasPrefix(c.ID.String(), arg) {
			return c, nil
		}
	}
	return vault.Collection{}, fmt.Errorf("%w: collection %q", common.ErrorNotFound, arg)
}

// tokenFor returns a cached unlock token for c, prompting for the
// password when the collection is protected and no token is cached yet.
func (a *App) tokenFor(c vault.Collection) (string, error) {
	if c.Password == nil {
		return "", nil
	}
	if token, ok := a.unlocks[c.ID]; ok {
		return token, nil
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return "", err
	}
	token, err := a.vault.Unlock(c, password)
	if err != nil {
		return "", err
	}
	a.unlocks[c.ID] = token
	return token, nil
}

func readImageFiles(paths []string) ([][]byte, error) {
	images := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		images = append(images, data)
	}
	return images, nil
}

func (a *App) listCollections(ctx context.Context) {
	collections, err := a.vault.ListCollections(ctx)
	if err != nil {
		printlnFn("Error:", err)
		return
	}
	if len(collections) == 0 {
		printlnFn("No collections yet")
		return
	}
	for _, c := range collections {
		marker := " "
		if c.Password != nil {
			marker = "*"
		}
		printlnFn(fmt.Sprintf("%s %s  %s  (category: %s, created %s)",
			marker, c.ID.String()[:8], c.Name, c.Category, c.CreatedAt.Format("2006-01-02")))
	}
}

func (a *App) createCollection(ctx context.Context, args []string) {
	var name string
	var err error
	if len(args) > 0 {
		name = strings.Join(args, " ")
	} else {
		name, err = getSimpleText(a.reader, "Collection name", os.Stdout)
		if err != nil || name == "" {
			printlnFn("A name is required")
			return
		}
	}

	collections, err := a.vault.ListCollections(ctx)
	if err != nil {
		printlnFn("Error:", err)
		return
	}
	for _, c := range collections {
		if c.Name == name {
			printlnFn("Collection already exists:", name)
			return
		}
	}

	collections = append(collections, vault.NewCollection(name, name))
	if err := a.vault.SaveCollections(ctx, collections); err != nil {
		printlnFn("Error:", err)
		return
	}
	printlnFn("Created:", name)
}

func (a *App) ingest(ctx context.Context, args []string) {
	if len(args) == 0 {
		printlnFn("Usage: ingest <files...>")
		return
	}

	images, err := readImageFiles(args)
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	existing, err := a.vault.ListCollections(ctx)
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, a.config.ClassifierTimeout)
	defer cancel()

	updated, err := a.pipeline.ClassifyAndStore(callCtx, images, existing)

	var partial *ingest.PartialError
	switch {
	case errors.Is(err, common.ErrClassifier):
		printlnFn("Classification failed, no changes were made. Try again.")
		return
	case errors.As(err, &partial):
		printlnFn("Some images were not saved:", partial.Error())
	case err != nil:
		printlnFn("Error:", err)
		return
	}

	printlnFn(fmt.Sprintf("Done. %d collection(s) total.", len(updated)))
}

func (a *App) addToCollection(ctx context.Context, args []string) {
	if len(args) < 2 {
		printlnFn("Usage: add <collection> <files...>")
		return
	}

	c, err := a.findCollection(ctx, args[0])
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	images, err := readImageFiles(args[1:])
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	added, err := a.pipeline.AddToCollection(ctx, images, c)
	var partial *ingest.PartialError
	if errors.As(err, &partial) {
		printlnFn("Some images were not saved:", partial.Error())
	} else if err != nil {
		printlnFn("Error:", err)
		return
	}

	printlnFn(fmt.Sprintf("Added %d item(s) to %s", len(added), c.Name))
}

func (a *App) listItems(ctx context.Context, args []string) {
	if len(args) == 0 {
		printlnFn("Usage: list <collection>")
		return
	}

	c, err := a.findCollection(ctx, args[0])
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	token, err := a.tokenFor(c)
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	items, err := a.vault.OpenCollection(ctx, c, token)
	if err != nil {
		printlnFn("Error:", err)
		return
	}
	if len(items) == 0 {
		printlnFn("Collection is empty")
		return
	}
	for n, it := range items {
		printlnFn(fmt.Sprintf("%3d  %s  %s  uploaded %s",
			n, it.ID.String()[:8], it.OriginalFileName, it.UploadedAt.Format("2006-01-02 15:04")))
	}
}

// itemAt resolves args ("<collection> <n>") to the n-th item of an
// unlocked collection.
func (a *App) itemAt(ctx context.Context, args []string) (vault.Item, error) {
	c, err := a.findCollection(ctx, args[0])
	if err != nil {
		return vault.Item{}, err
	}

	token, err := a.tokenFor(c)
	if err != nil {
		return vault.Item{}, err
	}

	items, err := a.vault.OpenCollection(ctx, c, token)
	if err != nil {
		return vault.Item{}, err
	}

	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 || n >= len(items) {
		return vault.Item{}, fmt.Errorf("%w: item %q", common.ErrorNotFound, args[1])
	}
	return items[n], nil
}

func (a *App) showItem(ctx context.Context, args []string) {
	if len(args) < 3 {
		printlnFn("Usage: show <collection> <n> <out-file>")
		return
	}

	item, err := a.itemAt(ctx, args)
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	data, err := a.vault.LoadDecryptedItem(ctx, item.StorageRef)
	if err != nil {
		if errors.Is(err, common.ErrAuthentication) || errors.Is(err, common.ErrMalformedBlob) {
			printlnFn("This item cannot be decrypted")
		} else {
			printlnFn("Error:", err)
		}
		return
	}

	if err := os.WriteFile(args[2], data, 0o600); err != nil {
		printlnFn("Error:", err)
		return
	}
	printlnFn("Written:", args[2])
}

func (a *App) deleteItem(ctx context.Context, args []string) {
	if len(args) < 2 {
		printlnFn("Usage: delete <collection> <n>")
		return
	}

	item, err := a.itemAt(ctx, args)
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	if err := a.vault.DeleteItem(ctx, item); err != nil {
		printlnFn("Error:", err)
		return
	}
	printlnFn("Deleted item", item.ID.String()[:8])
}

func (a *App) deleteCollection(ctx context.Context, args []string) {
	if len(args) == 0 {
		printlnFn("Usage: rmcol <collection>")
		return
	}

	c, err := a.findCollection(ctx, args[0])
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	if _, err := a.tokenFor(c); err != nil {
		printlnFn("Error:", err)
		return
	}

	if err := a.vault.DeleteCollection(ctx, c.ID); err != nil {
		printlnFn("Error:", err)
		return
	}
	printlnFn("Deleted collection", c.Name)
}

// updateCollection replaces c in the stored list and persists it.
func (a *App) updateCollection(ctx context.Context, c vault.Collection) error {
	collections, err := a.vault.ListCollections(ctx)
	if err != nil {
		return err
	}
	for n := range collections {
		if collections[n].ID == c.ID {
			collections[n] = c
		}
	}
	return a.vault.SaveCollections(ctx, collections)
}

func (a *App) protect(ctx context.Context, args []string) {
	if len(args) == 0 {
		printlnFn("Usage: protect <collection>")
		return
	}

	c, err := a.findCollection(ctx, args[0])
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	password, err := getPassword(os.Stdout)
	if err != nil || password == "" {
		printlnFn("A password is required")
		return
	}

	if err := c.SetPassword(password); err != nil {
		printlnFn("Error:", err)
		return
	}
	if err := a.updateCollection(ctx, c); err != nil {
		printlnFn("Error:", err)
		return
	}
	delete(a.unlocks, c.ID)
	printlnFn("Protected:", c.Name)
}

func (a *App) unprotect(ctx context.Context, args []string) {
	if len(args) == 0 {
		printlnFn("Usage: unprotect <collection>")
		return
	}

	c, err := a.findCollection(ctx, args[0])
	if err != nil {
		printlnFn("Error:", err)
		return
	}
	if c.Password == nil {
		printlnFn("Collection is not protected")
		return
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		printlnFn("Error:", err)
		return
	}
	if !c.VerifyPassword(password) {
		printlnFn("Error:", common.ErrInvalidPassword)
		return
	}

	c.RemovePassword()
	if err := a.updateCollection(ctx, c); err != nil {
		printlnFn("Error:", err)
		return
	}
	delete(a.unlocks, c.ID)
	printlnFn("Unprotected:", c.Name)
}

func (a *App) unlock(ctx context.Context, args []string) {
	if len(args) == 0 {
		printlnFn("Usage: unlock <collection>")
		return
	}

	c, err := a.findCollection(ctx, args[0])
	if err != nil {
		printlnFn("Error:", err)
		return
	}

	delete(a.unlocks, c.ID)
	if _, err := a.tokenFor(c); err != nil {
		printlnFn("Error:", err)
		return
	}
	printlnFn("Unlocked:", c.Name)
}

func (a *App) chatTurn(ctx context.Context, args []string) {
	if len(args) == 0 {
		printlnFn("Usage: chat <text>")
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, a.config.ClassifierTimeout)
	defer cancel()

	reply, err := a.chat.Send(callCtx, strings.Join(args, " "))
	if err != nil {
		printlnFn("Error:", err)
		return
	}
	printlnFn("AI:", reply.Content)
}

func (a *App) chatHistory(ctx context.Context) {
	messages, err := a.chat.History().Load()
	if err != nil {
		printlnFn("Error:", err)
		return
	}
	for _, m := range messages {
		who := "AI"
		if m.FromUser {
			who = "You"
		}
		printlnFn(fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format("15:04"), who, m.Content))
	}
}

func (a *App) chatClear(ctx context.Context) {
	if err := a.chat.History().Clear(); err != nil {
		printlnFn("Error:", err)
		return
	}
	printlnFn("Chat history cleared")
}

func (a *App) erase(ctx context.Context) {
	answer, err := getSimpleText(a.reader,
		"This deletes every collection, every photo, and the master key. Type 'yes' to continue", os.Stdout)
	if err != nil || answer != "yes" {
		printlnFn("Aborted")
		return
	}

	if err := a.vault.EraseEverything(ctx); err != nil {
		printlnFn("Error:", err)
		return
	}
	if err := a.chat.History().Clear(); err != nil {
		printlnFn("Error:", err)
		return
	}
	a.unlocks = make(map[uuid.UUID]string)
	printlnFn("All data erased")
}
