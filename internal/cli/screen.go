package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/dona/internal/logging"
	"github.com/aretw0/dona/internal/presentation/tui"
	"github.com/aretw0/dona/pkg/controller"
	"github.com/aretw0/dona/pkg/domain"
)

// HelpText lists the commands of the interactive screen.
const HelpText = `Type a task and press Enter to add it.
  ::text     add a task that starts with ':'
  :star      toggle the star of the task being written
  :edit N    edit task N (Enter keeps the text, new text replaces it)
  :done N    mark task N done / not done
  :rm N      delete task N
  :cancel    drop the current draft
  :help      show this help
  :quit      leave`

// Screen is the line-oriented task screen: it reads intents, drives the
// controller and re-renders the list after every command.
type Screen struct {
	ctrl     *controller.Controller
	renderer *tui.Renderer
	out      io.Writer
	logger   *slog.Logger
	visible  []domain.Task
}

// ScreenOption configures the Screen.
type ScreenOption func(*Screen)

// WithScreenLogger configures a logger for the Screen.
func WithScreenLogger(logger *slog.Logger) ScreenOption {
	return func(s *Screen) {
		s.logger = logger
	}
}

// NewScreen creates a screen writing to out.
func NewScreen(ctrl *controller.Controller, renderer *tui.Renderer, out io.Writer, opts ...ScreenOption) *Screen {
	s := &Screen{
		ctrl:     ctrl,
		renderer: renderer,
		out:      out,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads commands from in until EOF, :quit or ctx cancellation.
func (s *Screen) Run(ctx context.Context, in io.Reader) error {
	s.renderer.PrintBanner(s.out)
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	s.prompt()

	scanner := bufio.NewScanner(NewInterruptibleReader(in, ctx.Done()))
	for scanner.Scan() {
		quit, err := s.Handle(ctx, scanner.Text())
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		s.prompt()
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return ctx.Err()
}

// Handle applies one input line. It only returns an error when the list
// can no longer be read; failed commands are reported on the screen.
func (s *Screen) Handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimRight(line, "\r\n")

	// "::" escapes a title that starts with a colon.
	text, escaped := strings.CutPrefix(line, "::")
	if escaped {
		line = ":" + text
	}

	if escaped || !strings.HasPrefix(line, ":") {
		if strings.TrimSpace(line) == "" && !s.ctrl.Snapshot().IsInputActive {
			return false, s.Refresh(ctx)
		}
		if strings.TrimSpace(line) != "" {
			s.ctrl.SetDraftTitle(line)
		}
		s.report(s.ctrl.Submit(ctx))
		return false, s.Refresh(ctx)
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "q", "quit", "exit":
		return true, nil
	case "help", "h", "?":
		fmt.Fprintln(s.out, HelpText)
		return false, nil
	case "star":
		s.ctrl.ToggleStarDraft()
	case "cancel":
		s.ctrl.Cancel()
	case "edit":
		task, err := ResolveTask(s.visible, arg)
		if err != nil {
			s.report(err)
			return false, nil
		}
		s.ctrl.BeginEdit(task)
	case "done":
		task, err := ResolveTask(s.visible, arg)
		if err != nil {
			s.report(err)
			return false, nil
		}
		s.report(s.ctrl.RequestToggleCompleted(ctx, task.ID))
	case "rm", "delete":
		task, err := ResolveTask(s.visible, arg)
		if err != nil {
			s.report(err)
			return false, nil
		}
		s.report(s.ctrl.RequestDelete(ctx, task.ID))
	default:
		s.report(fmt.Errorf("unknown command %q (try :help)", cmd))
		return false, nil
	}
	return false, s.Refresh(ctx)
}

// Refresh re-reads the list and renders it, numbered newest first.
func (s *Screen) Refresh(ctx context.Context) error {
	list, err := s.ctrl.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	s.visible = list

	out, err := s.renderer.RenderList(list)
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, out)
	return nil
}

// Visible returns the tasks as last rendered.
func (s *Screen) Visible() []domain.Task {
	return s.visible
}

func (s *Screen) prompt() {
	fmt.Fprint(s.out, s.renderer.Prompt(s.ctrl.Snapshot()))
}

func (s *Screen) report(err error) {
	if err == nil {
		return
	}
	s.logger.Debug("Command failed", "err", err)
	fmt.Fprintln(s.out, s.renderer.Error(err.Error()))
}
