package main

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/utilitywarehouse/lohr/mirror"
	"github.com/utilitywarehouse/lohr/payload"
	"github.com/utilitywarehouse/lohr/settings"
	"github.com/utilitywarehouse/lohr/signature"
)

const (
	signatureHeader = "X-Gitea-Signature"
	// maxBodySize is the limit of the webhook request body
	maxBodySize = 1 << 20 // 1 MiB
)

// webhook delivery results
const (
	resultQueued             = "queued"
	resultBlacklisted        = "blacklisted"
	resultBadMethod          = "bad_method"
	resultBadContentType     = "bad_content_type"
	resultBadSignatureHeader = "bad_signature_header"
	resultTooLarge           = "too_large"
	resultBadSignature       = "bad_signature"
	resultBadPayload         = "bad_payload"
	resultQueueError         = "queue_error"
)

// webhookError is a rejected delivery
type webhookError struct {
	status int
	result string
	msg    string
	err    error
}

func (e *webhookError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *webhookError) Unwrap() error {
	return e.err
}

// WebhookHandler authenticates webhook deliveries and queues a mirror job
// for the repository in the payload.
type WebhookHandler struct {
	secret   []byte
	settings *settings.Settings
	// enqueue must not block
	enqueue func(mirror.Repository) error
	log     *slog.Logger
}

func (wh *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	repo, whErr := wh.authenticate(w, r)
	if whErr != nil {
		wh.log.Warn("webhook rejected", "result", whErr.result, "remote_addr", r.RemoteAddr, "err", whErr)
		recordWebhook(whErr.result)
		w.WriteHeader(whErr.status)
		return
	}

	log := wh.log.With("repo", repo.FullName)

	if pattern, ok := wh.settings.Blacklist.Match(repo.FullName); ok {
		log.Info("repository is blacklisted, ignoring", "pattern", pattern)
		recordWebhook(resultBlacklisted)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := wh.enqueue(repo); err != nil {
		log.Error("unable to queue mirror job", "err", err)
		recordWebhook(resultQueueError)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	log.Info("mirror job queued")
	recordWebhook(resultQueued)
	w.WriteHeader(http.StatusOK)
}

// authenticate runs all checks on the delivery in order and returns
// repository from the verified payload
//  1. method must be POST
//  2. content type must be json
//  3. exactly one signature header must be present
//  4. body must not be larger than 1 MiB
//  5. signature must match
//  6. payload must be valid
func (wh *WebhookHandler) authenticate(w http.ResponseWriter, r *http.Request) (mirror.Repository, *webhookError) {
	if r.Method != http.MethodPost {
		return mirror.Repository{}, &webhookError{http.StatusBadRequest, resultBadMethod, "invalid method " + r.Method, nil}
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return mirror.Repository{}, &webhookError{http.StatusBadRequest, resultBadContentType, "content type must be application/json", err}
	}

	sigs := r.Header.Values(signatureHeader)
	if len(sigs) != 1 {
		return mirror.Repository{}, &webhookError{http.StatusBadRequest, resultBadSignatureHeader, "exactly one " + signatureHeader + " header is required", nil}
	}

	// limit is enforced while reading
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return mirror.Repository{}, &webhookError{http.StatusRequestEntityTooLarge, resultTooLarge, "payload too large", err}
		}
		return mirror.Repository{}, &webhookError{http.StatusBadRequest, resultBadPayload, "cannot read request body", err}
	}

	if err := signature.Verify(wh.secret, body, sigs[0]); err != nil {
		return mirror.Repository{}, &webhookError{http.StatusBadRequest, resultBadSignature, "invalid signature", err}
	}

	repo, err := payload.Parse(body)
	if err != nil {
		return mirror.Repository{}, &webhookError{http.StatusBadRequest, resultBadPayload, "invalid payload", err}
	}

	return repo, nil
}

// healthHandler reports that the server is up
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}
