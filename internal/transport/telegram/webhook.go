package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xeipuuv/gojsonschema"
)

// updateSchema is the minimal shape an inbound webhook payload must have
// before it is handed to the engine. Telegram sends far more fields; only
// the ones the bot consumes are pinned down.
const updateSchema = `{
	"type": "object",
	"required": ["update_id"],
	"properties": {
		"update_id": {"type": "integer"},
		"message": {
			"type": "object",
			"required": ["chat"],
			"properties": {
				"text": {"type": "string"},
				"chat": {
					"type": "object",
					"required": ["id"],
					"properties": {
						"id": {"type": "integer"}
					}
				}
			}
		}
	}
}`

var compiledUpdateSchema = gojsonschema.NewStringLoader(updateSchema)

// RunWebhook registers the webhook with Telegram and serves update
// callbacks until ctx is cancelled.
func (b *Bot) RunWebhook(ctx context.Context) error {
	hook, err := tgbotapi.NewWebhook(b.cfg.WebhookURL)
	if err != nil {
		return err
	}
	if _, err := b.api.Request(hook); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/"+b.api.Token, b.serveUpdate(ctx))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              b.cfg.WebhookAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	b.logger.Info("webhook registered", map[string]interface{}{
		"addr": b.cfg.WebhookAddr,
	})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (b *Bot) serveUpdate(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if err := b.validateUpdate(body); err != nil {
			b.logger.WithError(err).Warn("rejected malformed update", nil)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var update tgbotapi.Update
		if err := json.Unmarshal(body, &update); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		b.handleUpdate(ctx, update)
		w.WriteHeader(http.StatusOK)
	}
}

// validateUpdate checks the payload against updateSchema so a malformed
// callback is rejected at the edge instead of surfacing as a nil
// dereference deeper in.
func (b *Bot) validateUpdate(body []byte) error {
	result, err := gojsonschema.Validate(compiledUpdateSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return err
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, resultErr := range result.Errors() {
			errs[i] = resultErr.String()
		}
		return &schemaError{details: strings.Join(errs, "; ")}
	}
	return nil
}

type schemaError struct {
	details string
}

func (e *schemaError) Error() string {
	return "update payload failed validation: " + e.details
}
