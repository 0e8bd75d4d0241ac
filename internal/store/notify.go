package store

import (
	"sync"

	"go-recipe-pipeline/internal/model"
)

// notifier fans gallery row updates out to per-row subscribers. It is the
// in-process analogue of a database change-notification channel: the
// completion waiter subscribes here while polling as a fallback.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan model.GalleryItem // gallery id -> sub id -> channel
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[int]chan model.GalleryItem)}
}

// subscribe registers a buffered channel for updates to one gallery row.
func (n *notifier) subscribe(galleryID string) (<-chan model.GalleryItem, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	ch := make(chan model.GalleryItem, 8)

	if n.subs[galleryID] == nil {
		n.subs[galleryID] = make(map[int]chan model.GalleryItem)
	}
	n.subs[galleryID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if subs, ok := n.subs[galleryID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(n.subs, galleryID)
			}
		}
	}

	return ch, cancel
}

// publish delivers an updated snapshot to every subscriber of that row.
// Subscribers with full buffers are skipped; the poll loop covers them.
func (n *notifier) publish(item model.GalleryItem) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs[item.ID] {
		select {
		case ch <- item:
		default:
		}
	}
}
