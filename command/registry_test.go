package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tailored-agentic-units/mentify/command"
)

func echoHandler(_ context.Context, args string) (command.Result, error) {
	return command.Result{Content: args}, nil
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		spec    command.Spec
		wantErr error
	}{
		{name: "valid command", spec: command.Spec{Name: "attach"}},
		{name: "empty name", spec: command.Spec{}, wantErr: command.ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := command.NewRegistry().Register(tt.spec, echoHandler)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("Register() unexpected error: %v", err)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := command.NewRegistry()
	spec := command.Spec{Name: "copy"}

	if err := r.Register(spec, echoHandler); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}
	if err := r.Register(spec, echoHandler); !errors.Is(err, command.ErrAlreadyExists) {
		t.Errorf("second Register() error = %v, want %v", err, command.ErrAlreadyExists)
	}
}

func TestList_Sorted(t *testing.T) {
	r := command.NewRegistry()
	for _, name := range []string{"read", "attach", "history"} {
		r.Register(command.Spec{Name: name}, echoHandler)
	}

	specs := r.List()
	want := []string{"attach", "history", "read"}
	if len(specs) != len(want) {
		t.Fatalf("List() returned %d specs, want %d", len(specs), len(want))
	}
	for i, s := range specs {
		if s.Name != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, s.Name, want[i])
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{"/attach ./photo.png", "attach", "./photo.png", true},
		{"  /HISTORY   delete abc ", "history", "delete abc", true},
		{"/clear", "clear", "", true},
		{"/", "", "", false},
		{"hello /attach", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			name, args, ok := command.Parse(tt.line)
			if name != tt.wantName || args != tt.wantArgs || ok != tt.wantOK {
				t.Errorf("Parse(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.line, name, args, ok, tt.wantName, tt.wantArgs, tt.wantOK)
			}
		})
	}
}

func TestRun(t *testing.T) {
	r := command.NewRegistry()
	r.Register(command.Spec{Name: "echo"}, echoHandler)
	ctx := context.Background()

	got, err := r.Run(ctx, "/echo hello there")
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got.Content != "hello there" {
		t.Errorf("Run() = %q, want %q", got.Content, "hello there")
	}

	if _, err := r.Run(ctx, "plain text"); !errors.Is(err, command.ErrNotCommand) {
		t.Errorf("Run(plain) error = %v, want ErrNotCommand", err)
	}
	if _, err := r.Run(ctx, "/missing"); !errors.Is(err, command.ErrNotFound) {
		t.Errorf("Run(missing) error = %v, want ErrNotFound", err)
	}
}

func TestExecute_HandlerError(t *testing.T) {
	r := command.NewRegistry()
	boom := errors.New("boom")
	r.Register(command.Spec{Name: "fail"}, func(context.Context, string) (command.Result, error) {
		return command.Result{}, boom
	})

	if _, err := r.Execute(context.Background(), "fail", ""); !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want wrapped boom", err)
	}
}

func TestIsCommand(t *testing.T) {
	if !command.IsCommand("/help") {
		t.Error("IsCommand(/help) = false")
	}
	if command.IsCommand("help") {
		t.Error("IsCommand(help) = true")
	}
}
