package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const icyHeaderTimeout = 4 * time.Second

var icyClient = &http.Client{
	Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DisableCompression:    true,
		DisableKeepAlives:     true,
		ResponseHeaderTimeout: icyHeaderTimeout,
	},
}

var errNoICYMetadata = errors.New("icy metadata not available")

// icyTitleWatcher opens a second connection to a Shoutcast/Icecast stream
// and reports StreamTitle changes from its interleaved metadata blocks.
type icyTitleWatcher struct {
	cancel    context.CancelFunc
	body      io.ReadCloser
	updates   chan string
	done      chan struct{}
	closeOnce sync.Once
}

func newICYTitleWatcher(rawURL string) (*icyTitleWatcher, error) {
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Icy-MetaData", "1")
	req.Header.Set("User-Agent", "audiovisual")

	resp, err := icyClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	metaInt, err := parseICYMetaInt(resp.Header.Get("icy-metaint"))
	if err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	w := &icyTitleWatcher{
		cancel:  cancel,
		body:    resp.Body,
		updates: make(chan string, 1),
		done:    make(chan struct{}),
	}
	go w.run(ctx, metaInt)
	return w, nil
}

func (w *icyTitleWatcher) Updates() <-chan string {
	if w == nil {
		return nil
	}
	return w.updates
}

func (w *icyTitleWatcher) Close() error {
	if w == nil {
		return nil
	}
	var err error
	w.closeOnce.Do(func() {
		w.cancel()
		err = w.body.Close()
		<-w.done
	})
	return err
}

func (w *icyTitleWatcher) run(ctx context.Context, metaInt int) {
	defer close(w.done)
	defer close(w.updates)

	var last string
	for {
		fields, err := readICYBlock(w.body, metaInt)
		if err != nil {
			return
		}
		title := fields["streamtitle"]
		if title == "" || title == last {
			continue
		}
		last = title
		select {
		case w.updates <- title:
		case <-ctx.Done():
			return
		}
	}
}

// readICYBlock skips metaInt audio bytes and parses the metadata block that
// follows. An empty block yields no fields.
func readICYBlock(r io.Reader, metaInt int) (map[string]string, error) {
	if _, err := io.CopyN(io.Discard, r, int64(metaInt)); err != nil {
		return nil, err
	}
	var size [1]byte
	if _, err := io.ReadFull(r, size[:]); err != nil {
		return nil, err
	}
	if size[0] == 0 {
		return nil, nil
	}
	block := make([]byte, int(size[0])*16)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, err
	}
	return parseICYFields(block), nil
}

func parseICYMetaInt(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, errNoICYMetadata
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid icy-metaint %q", value)
	}
	return n, nil
}

// parseICYFields splits a metadata block of the form Key='value'; into
// lower-cased keys and trimmed values. Values may contain semicolons.
func parseICYFields(block []byte) map[string]string {
	raw := strings.TrimRight(string(block), "\x00")
	fields := make(map[string]string)
	for raw != "" {
		eq := strings.Index(raw, "='")
		if eq < 0 {
			break
		}
		key := strings.ToLower(strings.TrimSpace(raw[:eq]))
		rest := raw[eq+2:]
		end := strings.Index(rest, "';")
		if end < 0 {
			end = strings.LastIndex(rest, "'")
			if end < 0 {
				break
			}
		}
		fields[key] = strings.TrimSpace(rest[:end])
		raw = strings.TrimPrefix(rest[end:], "'")
		raw = strings.TrimPrefix(raw, ";")
	}
	return fields
}
