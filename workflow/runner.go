// Package workflow implements the image-prompt command: take the selected
// text, find the nearest image embed above it, send both to a chat model and
// write the answer below the selection.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nachoal/image-prompt-go/config"
	"github.com/nachoal/image-prompt-go/document"
	"github.com/nachoal/image-prompt-go/llm"
	"github.com/nachoal/image-prompt-go/vault"
)

// Indicator shows progress while the request is in flight
type Indicator interface {
	Show(message string)
	Hide()
}

// NoopIndicator draws nothing
type NoopIndicator struct{}

func (NoopIndicator) Show(string) {}
func (NoopIndicator) Hide()       {}

// ClientFactory builds a client for the current settings. It is called once
// per run so edits made through the settings form apply immediately.
type ClientFactory func(config.Settings) (llm.Client, error)

// Outcome describes a successful run
type Outcome struct {
	RunID     string
	ViewID    string
	Reference ImageReference
	Image     string
	MimeType  string
	Selection document.Selection
	Inserted  document.Position
	Text      string
	Usage     *llm.Usage
}

// Runner executes the workflow against a workspace
type Runner struct {
	workspace document.Workspace
	resolver  vault.Resolver
	newClient ClientFactory
	indicator Indicator
	logger    *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Runner
type Option func(*Runner)

// WithIndicator sets the progress indicator
func WithIndicator(ind Indicator) Option {
	return func(r *Runner) {
		if ind != nil {
			r.indicator = ind
		}
	}
}

// WithLogger sets the developer log
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner
func NewRunner(ws document.Workspace, resolver vault.Resolver, newClient ClientFactory, opts ...Option) *Runner {
	r := &Runner{
		workspace: ws,
		resolver:  resolver,
		newClient: newClient,
		indicator: NoopIndicator{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		inflight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one invocation. The document is only modified when every
// stage succeeds. Failures are logged and returned as *Error.
func (r *Runner) Run(ctx context.Context, settings config.Settings) (*Outcome, error) {
	runID := uuid.NewString()
	log := r.logger.With("run_id", runID)

	out, err := r.run(ctx, log, runID, settings)
	if err != nil {
		var werr *Error
		if errors.As(err, &werr) && werr.Class == ClassPrecondition {
			log.Warn("run_end", "status", "aborted", "stage", werr.Stage, "err", werr.Err)
		} else {
			log.Error("run_end", "status", "error", "err", err)
		}
		return nil, err
	}

	log.Info("run_end", "status", "ok", "image", out.Image, "response_len", len(out.Text))
	return out, nil
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, runID string, settings config.Settings) (*Outcome, error) {
	view, sel, err := LocateSelection(r.workspace)
	if err != nil {
		return nil, fail(StageSelection, ClassPrecondition, err)
	}

	if !r.acquire(view.ID()) {
		return nil, fail(StageSelection, ClassPrecondition, ErrBusy)
	}
	defer r.release(view.ID())

	log.Info("run_start", "view", view.ID(), "from", sel.From.String(), "to", sel.To.String())

	ed := view.Editor()
	lines := strings.Split(ed.GetValue(), "\n")
	ref, err := FindImageReference(lines, sel.From.Line)
	if err != nil {
		return nil, fail(StageScan, ClassPrecondition, err)
	}
	log.Debug("image_reference", "ref", ref.Ref, "line", ref.Line)

	img, err := EncodeImage(ctx, r.resolver, ref.Ref, view.Path())
	if err != nil {
		return nil, fail(StageEncode, ClassResolution, err)
	}
	log.Debug("image_encoded", "path", img.Path, "mime", img.MimeType, "data_uri_len", len(img.DataURI))

	client, err := r.newClient(settings)
	if err != nil {
		return nil, fail(StageRequest, ClassTransport, fmt.Errorf("failed to create client: %w", err))
	}
	defer client.Close()

	completion, err := r.request(ctx, client, settings, sel.Text, img)
	if err != nil {
		return nil, fail(StageRequest, ClassTransport, err)
	}

	pos, err := InsertBelowSelection(ed, completion.Text)
	if err != nil {
		return nil, fail(StageInsert, ClassTransport, err)
	}

	return &Outcome{
		RunID:     runID,
		ViewID:    view.ID(),
		Reference: ref,
		Image:     img.Path,
		MimeType:  img.MimeType,
		Selection: sel,
		Inserted:  pos,
		Text:      completion.Text,
		Usage:     completion.Usage,
	}, nil
}

// request wraps the round trip with the indicator. Hide always runs.
func (r *Runner) request(ctx context.Context, client llm.Client, settings config.Settings, prompt string, img *EncodedImage) (*Completion, error) {
	r.indicator.Show(fmt.Sprintf("Asking %s about %s", settings.Model, img.Path))
	defer r.indicator.Hide()

	return RequestCompletion(ctx, client, settings, prompt, img)
}

func (r *Runner) acquire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[id]; busy {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	delete(r.inflight, id)
	r.mu.Unlock()
}
