package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/tailored-agentic-units/mentify/command"
	"github.com/tailored-agentic-units/mentify/core/protocol"
	"github.com/tailored-agentic-units/mentify/engine"
	"github.com/tailored-agentic-units/mentify/persona"
)

// registerCommands installs the slash commands. Speech commands are only
// offered when the engine has the matching capability.
func registerCommands(r *command.Registry, e *engine.Engine) {
	h := &handlers{engine: e, registry: r}

	must(r.Register(command.Spec{Name: "help", Usage: "/help", Description: "List commands."}, h.help))
	must(r.Register(command.Spec{Name: "attach", Usage: "/attach <path>", Description: "Stage a file for the next message."}, h.attach))
	must(r.Register(command.Spec{Name: "unstage", Usage: "/unstage <n>", Description: "Remove staged file n."}, h.unstage))
	must(r.Register(command.Spec{Name: "staged", Usage: "/staged", Description: "List staged files."}, h.staged))
	must(r.Register(command.Spec{Name: "persona", Usage: "/persona [name]", Description: "List personas or switch to one."}, h.persona))
	must(r.Register(command.Spec{Name: "history", Usage: "/history [delete <n> | clear | export <path>]", Description: "Show or manage the history ledger."}, h.history))
	must(r.Register(command.Spec{Name: "copy", Usage: "/copy [n]", Description: "Copy message n (default: latest reply)."}, h.copy))
	if e.Speech().CanSpeak() {
		must(r.Register(command.Spec{Name: "read", Usage: "/read [n]", Description: "Read message n aloud, or stop (default: latest reply)."}, h.read))
	}
	if e.Speech().CanListen() {
		must(r.Register(command.Spec{Name: "listen", Usage: "/listen", Description: "Start or stop voice input."}, h.listen))
	}
	must(r.Register(command.Spec{Name: "suggest", Usage: "/suggest [n]", Description: "List suggestions or put suggestion n in the composer."}, h.suggest))
	must(r.Register(command.Spec{Name: "clear", Usage: "/clear", Description: "Clear the conversation."}, h.clear))
	must(r.Register(command.Spec{Name: "new", Usage: "/new", Description: "Start a new chat."}, h.newChat))
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("failed to register command: %v", err))
	}
}

type handlers struct {
	engine   *engine.Engine
	registry *command.Registry
}

func usageError(format string, args ...any) (command.Result, error) {
	return command.Result{Content: fmt.Sprintf(format, args...), IsError: true}, nil
}

func (h *handlers) help(_ context.Context, _ string) (command.Result, error) {
	var b strings.Builder
	for _, spec := range h.registry.List() {
		fmt.Fprintf(&b, "%-48s %s\n", spec.Usage, spec.Description)
	}
	return command.Result{Content: strings.TrimRight(b.String(), "\n")}, nil
}

func (h *handlers) attach(_ context.Context, args string) (command.Result, error) {
	if args == "" {
		return usageError("usage: /attach <path>")
	}
	a, err := h.engine.Attach(expandHome(args))
	if err != nil {
		return usageError("cannot attach %s: %v", args, err)
	}
	return command.Result{Content: "staged " + describeAttachment(a)}, nil
}

func (h *handlers) unstage(_ context.Context, args string) (command.Result, error) {
	n, err := strconv.Atoi(args)
	if err != nil {
		return usageError("usage: /unstage <n>")
	}
	a, err := h.engine.Unstage(n - 1)
	if err != nil {
		return usageError("cannot unstage %d: %v", n, err)
	}
	return command.Result{Content: "removed " + a.Name}, nil
}

func (h *handlers) staged(_ context.Context, _ string) (command.Result, error) {
	staged := h.engine.Staged()
	if len(staged) == 0 {
		return command.Result{Content: "nothing staged"}, nil
	}
	lines := make([]string, len(staged))
	for i, a := range staged {
		lines[i] = fmt.Sprintf("[%d] %s", i+1, describeAttachment(a))
	}
	return command.Result{Content: strings.Join(lines, "\n")}, nil
}

func (h *handlers) persona(ctx context.Context, args string) (command.Result, error) {
	if args != "" {
		err := h.engine.SelectPersona(ctx, args)
		var locked *persona.LockedPersonaError
		switch {
		case errors.As(err, &locked):
			return usageError("%s is locked (unlock for %s)", locked.Persona.DisplayName, locked.Persona.UnlockPrice)
		case errors.Is(err, persona.ErrPersonaNotFound):
			return usageError("no persona named %q", args)
		case err != nil:
			return command.Result{}, err
		}
		return command.Result{Content: "now chatting with " + h.engine.Persona().DisplayName}, nil
	}

	current := h.engine.Persona().ID
	var b strings.Builder
	for _, p := range h.engine.Catalog().List() {
		marker := "  "
		if p.ID == current {
			marker = "* "
		}
		b.WriteString(marker + p.DisplayName)
		if p.Locked {
			fmt.Fprintf(&b, " (locked, %s)", p.UnlockPrice)
		}
		if p.Description != "" {
			b.WriteString(" - " + p.Description)
		}
		b.WriteByte('\n')
	}
	return command.Result{Content: strings.TrimRight(b.String(), "\n")}, nil
}

func (h *handlers) history(ctx context.Context, args string) (command.Result, error) {
	ledger := h.engine.Ledger()
	if ledger == nil {
		return usageError("history is not available")
	}

	sub, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	entries := ledger.Entries()

	switch sub {
	case "":
		if len(entries) == 0 {
			return command.Result{Content: "no history yet"}, nil
		}
		lines := make([]string, len(entries))
		for i, en := range entries {
			lines[i] = fmt.Sprintf("[%d] %s  %s", i+1, en.Timestamp.Format("Jan 02 15:04"), en.Title)
		}
		return command.Result{Content: strings.Join(lines, "\n")}, nil

	case "delete":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 || n > len(entries) {
			return usageError("usage: /history delete <n> (1-%d)", len(entries))
		}
		if err := ledger.Delete(ctx, entries[n-1].ID); err != nil {
			return command.Result{}, err
		}
		return command.Result{Content: "deleted " + entries[n-1].Title}, nil

	case "clear":
		if err := ledger.Clear(ctx); err != nil {
			return command.Result{}, err
		}
		return command.Result{Content: fmt.Sprintf("cleared %d entries", len(entries))}, nil

	case "export":
		if rest == "" {
			return usageError("usage: /history export <path>")
		}
		f, err := os.Create(expandHome(rest))
		if err != nil {
			return usageError("cannot export: %v", err)
		}
		defer f.Close()
		if err := ledger.Export(f); err != nil {
			return command.Result{}, err
		}
		return command.Result{Content: fmt.Sprintf("exported %d entries to %s", len(entries), rest)}, nil
	}

	return usageError("unknown history action %q", sub)
}

// resolveMessage maps an optional 1-based timeline position to a message
// id. No position selects the latest reply.
func (h *handlers) resolveMessage(args string) (protocol.Message, bool) {
	if args == "" {
		return h.engine.Session().LastReply()
	}
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 {
		return protocol.Message{}, false
	}
	msgs := slices.Collect(h.engine.Session().Messages())
	if n > len(msgs) {
		return protocol.Message{}, false
	}
	return msgs[n-1], true
}

func (h *handlers) copy(ctx context.Context, args string) (command.Result, error) {
	msg, ok := h.resolveMessage(args)
	if !ok {
		return usageError("no message to copy")
	}
	if err := h.engine.Copy(ctx, msg.ID); err != nil {
		return usageError("copy failed: %v", err)
	}
	return command.Result{Content: "copied to clipboard"}, nil
}

func (h *handlers) read(ctx context.Context, args string) (command.Result, error) {
	msg, ok := h.resolveMessage(args)
	if !ok {
		return usageError("no message to read")
	}
	if err := h.engine.ReadAloud(ctx, msg.ID); err != nil {
		return usageError("cannot read aloud: %v", err)
	}
	return command.Result{Content: "speech: " + h.engine.Speech().State().String()}, nil
}

func (h *handlers) listen(ctx context.Context, _ string) (command.Result, error) {
	if err := h.engine.ToggleListening(ctx); err != nil {
		return usageError("cannot listen: %v", err)
	}
	return command.Result{Content: "speech: " + h.engine.Speech().State().String()}, nil
}

func (h *handlers) suggest(_ context.Context, args string) (command.Result, error) {
	suggestions := h.engine.Suggestions()
	if args == "" {
		if len(suggestions) == 0 {
			return command.Result{Content: "no suggestions"}, nil
		}
		lines := make([]string, len(suggestions))
		for i, s := range suggestions {
			lines[i] = fmt.Sprintf("[%d] %s", i+1, s)
		}
		return command.Result{Content: strings.Join(lines, "\n")}, nil
	}

	n, err := strconv.Atoi(args)
	if err != nil || n < 1 || n > len(suggestions) {
		return usageError("usage: /suggest <n> (1-%d)", len(suggestions))
	}
	h.engine.SetDraft(suggestions[n-1])
	return command.Result{}, nil
}

func (h *handlers) clear(ctx context.Context, _ string) (command.Result, error) {
	h.engine.Clear(ctx)
	return command.Result{Content: "conversation cleared"}, nil
}

func (h *handlers) newChat(ctx context.Context, _ string) (command.Result, error) {
	h.engine.NewChat(ctx)
	return command.Result{Content: "new chat started"}, nil
}

func describeAttachment(a protocol.Attachment) string {
	desc := fmt.Sprintf("%s (%s, %s)", a.Name, a.Kind, formatBytes(a.SizeBytes))
	if a.Preview != nil {
		desc += fmt.Sprintf(" preview %dx%d", a.Preview.Width, a.Preview.Height)
	}
	return desc
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return home + string(os.PathSeparator) + rest
		}
	}
	return path
}
