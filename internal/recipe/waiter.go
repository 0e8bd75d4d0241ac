package recipe

import (
	"context"
	"log"
	"sync"
	"time"

	"go-recipe-pipeline/internal/model"
)

// waitOutcome is the single terminal result of one completion wait.
type waitOutcome struct {
	url string
	err error
}

// WaitForCompletion waits for the gallery item to carry a durable result
// URL, racing a change-notification subscription against a fixed-interval
// poll. Whichever channel observes a terminal state first wins; the guard
// ensures exactly one outcome is recorded and both channels are torn down.
//
// A transient provider URL observed before the durable upload finishes is
// not a resolving signal; the waiter keeps waiting for the storage-backed
// URL.
func (e *Engine) WaitForCompletion(ctx context.Context, galleryID string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}

	done := make(chan waitOutcome, 1)
	var once sync.Once
	settle := func(url string, err error) {
		once.Do(func() { done <- waitOutcome{url: url, err: err} })
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, unsubscribe := e.Store.Subscribe(galleryID)
	defer unsubscribe()

	check := func(item *model.GalleryItem) {
		if item == nil {
			return
		}
		if item.PublicURL != "" {
			if e.Uploader.IsDurableURL(item.PublicURL) {
				settle(item.PublicURL, nil)
				return
			}
			log.Printf("⏳ Gallery %s has a transient URL, waiting for durable upload...", galleryID)
		}
		switch item.Status {
		case model.GalleryFailed:
			settle("", &GenerationFailedError{Detail: itemErrorMessage(item, "Unknown error")})
		case model.GalleryCanceled:
			settle("", &GenerationCancelledError{})
		}
	}

	// Pull channel: immediate check, then every poll interval.
	go func() {
		if item, err := e.Store.GetItem(waitCtx, galleryID); err == nil {
			check(item)
		}
		ticker := time.NewTicker(waitPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-waitCtx.Done():
				return
			case <-ticker.C:
				item, err := e.Store.GetItem(waitCtx, galleryID)
				if err != nil {
					// Transient store errors: keep polling.
					continue
				}
				check(item)
			}
		}
	}()

	// Push channel: change-notification subscription.
	go func() {
		for {
			select {
			case <-waitCtx.Done():
				return
			case item, ok := <-updates:
				if !ok {
					return
				}
				check(&item)
			}
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.url, out.err

	case <-ctx.Done():
		settle("", ctx.Err())
		out := <-done
		return out.url, out.err

	case <-timer.C:
		// One final status check to enrich the timeout error.
		lastStatus := "unknown"
		lastError := ""
		if item, err := e.Store.GetItem(ctx, galleryID); err == nil && item != nil {
			if item.Status != "" {
				lastStatus = item.Status
			}
			lastError = itemErrorMessage(item, "")
		}
		settle("", &GenerationTimeoutError{
			Seconds:    int(timeout / time.Second),
			LastStatus: lastStatus,
			LastError:  lastError,
		})
		out := <-done
		return out.url, out.err
	}
}

// itemErrorMessage returns the most specific error message available on a
// gallery item: the explicit error field, else the nested metadata error,
// else the fallback.
func itemErrorMessage(item *model.GalleryItem, fallback string) string {
	if item.ErrorMessage != "" {
		return item.ErrorMessage
	}
	if item.Metadata.Error != "" {
		return item.Metadata.Error
	}
	return fallback
}
