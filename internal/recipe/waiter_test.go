package recipe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-recipe-pipeline/internal/model"
)

func TestWaitForCompletionImmediateDurableURL(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryCompleted, PublicURL: testDurablePrefix + "done.png"})

	url, err := e.WaitForCompletion(context.Background(), "g1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, testDurablePrefix+"done.png", url)
}

func TestWaitForCompletionResolvesOnSubscriptionPush(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryGenerating})

	// Push the durable update after the waiter has subscribed; the poll
	// interval is longer than the deadline here, so only the subscription
	// can resolve this in time.
	go func() {
		time.Sleep(50 * time.Millisecond)
		st.put(model.GalleryItem{ID: "g1", Status: model.GalleryCompleted, PublicURL: testDurablePrefix + "pushed.png"})
	}()

	start := time.Now()
	url, err := e.WaitForCompletion(context.Background(), "g1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, testDurablePrefix+"pushed.png", url)
	assert.Less(t, time.Since(start), 800*time.Millisecond)
}

func TestWaitForCompletionIgnoresTransientURL(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	// A provider delivery URL lands before the durable re-upload; it must
	// not resolve the wait.
	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryGenerating, PublicURL: "https://provider.test/tmp/abc.png"})

	_, err := e.WaitForCompletion(context.Background(), "g1", 150*time.Millisecond)
	require.Error(t, err)

	var timeoutErr *GenerationTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, model.GalleryGenerating, timeoutErr.LastStatus)
	assert.Contains(t, err.Error(), "No public URL received from webhook.")
}

func TestWaitForCompletionTransientThenDurable(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryGenerating})

	go func() {
		time.Sleep(30 * time.Millisecond)
		st.put(model.GalleryItem{ID: "g1", Status: model.GalleryGenerating, PublicURL: "https://provider.test/tmp/abc.png"})
		time.Sleep(50 * time.Millisecond)
		st.put(model.GalleryItem{ID: "g1", Status: model.GalleryCompleted, PublicURL: testDurablePrefix + "final.png"})
	}()

	url, err := e.WaitForCompletion(context.Background(), "g1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, testDurablePrefix+"final.png", url)
}

func TestWaitForCompletionFailedStatus(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryFailed, ErrorMessage: "NSFW content detected"})

	_, err := e.WaitForCompletion(context.Background(), "g1", time.Second)
	require.Error(t, err)
	assert.Equal(t, "Generation failed: NSFW content detected", err.Error())
}

func TestWaitForCompletionFailedStatusMetadataFallback(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryFailed, Metadata: model.GalleryMetadata{Error: "provider error"}})

	_, err := e.WaitForCompletion(context.Background(), "g1", time.Second)
	require.Error(t, err)
	assert.Equal(t, "Generation failed: provider error", err.Error())
}

func TestWaitForCompletionFailedStatusNoDetail(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryFailed})

	_, err := e.WaitForCompletion(context.Background(), "g1", time.Second)
	require.Error(t, err)
	assert.Equal(t, "Generation failed: Unknown error", err.Error())
}

func TestWaitForCompletionCanceledStatus(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryCanceled})

	_, err := e.WaitForCompletion(context.Background(), "g1", time.Second)
	require.Error(t, err)
	assert.Equal(t, "Generation was canceled", err.Error())
}

func TestWaitForCompletionTimeoutMessage(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryGenerating})

	_, err := e.WaitForCompletion(context.Background(), "g1", time.Second)
	require.Error(t, err)
	assert.Equal(t, "Timeout after 1s. Status: generating. No public URL received from webhook.", err.Error())
}

func TestWaitForCompletionContextCancellation(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	st.put(model.GalleryItem{ID: "g1", Status: model.GalleryGenerating})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := e.WaitForCompletion(ctx, "g1", 10*time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}
