package tts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Parameters of the Edge read-aloud websocket service. The service is the
// same one the browser's "read aloud" feature talks to; the GEC token is a
// per-connection proof derived from the trusted client token.
const (
	edgeWSSURL         = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	trustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	chromiumVersion    = "130.0.2849.68"
	outputFormat       = "audio-24khz-48kbitrate-mono-mp3"

	// Windows epoch offset in seconds, and the GEC token's rounding window.
	winEpochOffset = 11644473600
	gecWindow      = 300
)

const timestampLayout = "Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)"

// EdgeEngine synthesizes text through the Edge read-aloud service. Each
// Open dials a fresh websocket, sends the audio configuration and one SSML
// turn, and returns a stream of the resulting frames.
type EdgeEngine struct {
	opts   Options
	url    string
	dialer *websocket.Dialer
}

// NewEdgeEngine validates opts and returns an engine using them for every
// stream. An empty or "auto" voice resolves against the system locale.
func NewEdgeEngine(opts Options) (*EdgeEngine, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &EdgeEngine{
		opts: opts,
		url:  edgeWSSURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}, nil
}

// Name implements Engine.
func (e *EdgeEngine) Name() string { return "edge" }

// Voice returns the resolved voice the engine speaks with.
func (e *EdgeEngine) Voice() string { return e.opts.Voice }

// Open implements Engine. It performs the dial and the configuration
// handshake; the returned stream yields audio frames until the turn ends.
func (e *EdgeEngine) Open(ctx context.Context, text string) (Stream, error) {
	connID := requestID()
	wsURL := fmt.Sprintf("%s?TrustedClientToken=%s&Sec-MS-GEC=%s&Sec-MS-GEC-Version=1-%s&ConnectionId=%s",
		e.url, trustedClientToken, secMSGEC(time.Now()), chromiumVersion, connID)

	log.Debug("edge: dialing", "voice", e.opts.Voice, "chars", len(text))

	conn, resp, err := e.dialer.DialContext(ctx, wsURL, edgeHeaders())
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("edge dial: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("edge dial: %w", err)
	}

	now := time.Now().UTC()
	if err := conn.WriteMessage(websocket.TextMessage, speechConfigMessage(now)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("edge config: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, ssmlMessage(requestID(), now, e.opts, text)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("edge ssml: %w", err)
	}

	return &edgeStream{conn: conn}, nil
}

// edgeStream reads one synthesis turn off the websocket.
type edgeStream struct {
	conn      *websocket.Conn
	audio     int
	closeOnce sync.Once
}

// Recv returns the next event. The context's deadline bounds the wait for
// a single wire message; cancellation unblocks an in-flight read.
func (s *edgeStream) Recv(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(deadline)
	} else {
		_ = s.conn.SetReadDeadline(time.Time{})
	}

	// Unblock the read when the context is cancelled mid-message.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Event{}, ctxErr
			}
			// The only read deadline in play is the context's, so a
			// deadline error from the socket means the frame timed out.
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return Event{}, context.DeadlineExceeded
			}
			return Event{}, fmt.Errorf("edge read: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			payload, ok, err := parseBinaryFrame(data)
			if err != nil {
				return Event{}, err
			}
			if !ok {
				continue
			}
			s.audio += len(payload)
			return Event{Type: EventAudio, Data: payload}, nil

		case websocket.TextMessage:
			switch messagePath(data) {
			case "turn.end":
				if s.audio == 0 {
					return Event{Type: EventError, Message: ErrNoAudio.Error()}, nil
				}
				log.Debug("edge: turn finished", "audio_bytes", s.audio)
				return Event{Type: EventEnd}, nil
			case "turn.start", "response", "audio.metadata":
				// Bookkeeping messages, nothing to surface.
			default:
				log.Debug("edge: ignoring message", "path", messagePath(data))
			}
		}
	}
}

// Close implements Stream.
func (s *edgeStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

// secMSGEC derives the connection token: the SHA-256 of the Windows file
// time (rounded down to a five-minute window) concatenated with the
// trusted client token, upper-case hex.
func secMSGEC(now time.Time) string {
	ticks := now.UTC().Unix() + winEpochOffset
	ticks -= ticks % gecWindow
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d%s", ticks*10_000_000, trustedClientToken)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// requestID returns a UUID without dashes, the id format the service expects.
func requestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func edgeHeaders() http.Header {
	h := http.Header{}
	h.Set("Pragma", "no-cache")
	h.Set("Cache-Control", "no-cache")
	h.Set("Origin", "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) "+
		"Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0")
	return h
}

// speechConfigMessage selects the output format and disables boundary
// metadata, which this pipeline has no use for.
func speechConfigMessage(now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "X-Timestamp:%s\r\n", now.Format(timestampLayout))
	b.WriteString("Content-Type:application/json; charset=utf-8\r\n")
	b.WriteString("Path:speech.config\r\n\r\n")
	fmt.Fprintf(&b, `{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"%s"}}}}`, outputFormat)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// ssmlMessage wraps the text in the service's SSML envelope.
func ssmlMessage(id string, now time.Time, opts Options, text string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "X-RequestId:%s\r\n", id)
	b.WriteString("Content-Type:application/ssml+xml\r\n")
	fmt.Fprintf(&b, "X-Timestamp:%sZ\r\n", now.Format(timestampLayout))
	b.WriteString("Path:ssml\r\n\r\n")
	fmt.Fprintf(&b,
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>"+
			"<voice name='%s'><prosody pitch='%s' rate='%s' volume='%s'>%s</prosody></voice></speak>",
		opts.Voice, opts.Pitch, opts.Rate, opts.Volume, html.EscapeString(text))
	return []byte(b.String())
}

// parseBinaryFrame splits an audio wire message into headers and payload.
// The first two bytes are the big-endian header length; audio frames carry
// a Path:audio header. Non-audio binary frames are skipped, malformed ones
// are an error.
func parseBinaryFrame(data []byte) ([]byte, bool, error) {
	if len(data) < 2 {
		return nil, false, fmt.Errorf("edge: binary frame too short (%d bytes)", len(data))
	}
	headerLen := int(binary.BigEndian.Uint16(data[:2]))
	if 2+headerLen > len(data) {
		return nil, false, fmt.Errorf("edge: header length %d exceeds frame size %d", headerLen, len(data))
	}
	if !bytes.Contains(data[2:2+headerLen], []byte("Path:audio")) {
		return nil, false, nil
	}
	payload := data[2+headerLen:]
	if len(payload) == 0 {
		return nil, false, nil
	}
	return payload, true, nil
}

// messagePath extracts the Path header from a text wire message.
func messagePath(data []byte) string {
	head := data
	if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 {
		head = data[:i]
	}
	for _, line := range bytes.Split(head, []byte("\r\n")) {
		if rest, ok := bytes.CutPrefix(line, []byte("Path:")); ok {
			return string(bytes.TrimSpace(rest))
		}
	}
	return ""
}
