// Package webhook talks to the workflow-automation service that scores,
// fact-checks and ingests pitch decks.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/venturelens/venturelens/internal/analysis"
)

const maxBody = 4 << 20

type Config struct {
	ScoringURL string
	AnomalyURL string // optional
	IngestURL  string // optional
	ChatURL    string // optional

	// Client credentials, used only when TokenURL is set.
	TokenURL     string
	ClientID     string
	ClientSecret string

	Timeout time.Duration
}

type Client struct {
	http *http.Client
	cfg  Config
}

func New(cfg Config) *Client {
	var h *http.Client
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		h = cc.Client(context.Background())
	} else {
		h = &http.Client{}
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{http: h, cfg: cfg}
}

// TransportError is a failed call: either the request never completed (Err
// set) or the service answered with a non-2xx status.
type TransportError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s webhook: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s webhook: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Submission is what every deck webhook receives: the PDF as the "file" part
// and Fields as JSON in the "data" part.
type Submission struct {
	Filename string
	File     []byte
	Fields   map[string]string
}

func (c *Client) HasAnomaly() bool { return c.cfg.AnomalyURL != "" }
func (c *Client) HasIngest() bool  { return c.cfg.IngestURL != "" }
func (c *Client) HasChat() bool    { return c.cfg.ChatURL != "" }

// Analyze posts the deck to the scoring webhook and returns its raw JSON.
func (c *Client) Analyze(ctx context.Context, s Submission) (map[string]any, error) {
	return c.postDeck(ctx, "scoring", c.cfg.ScoringURL, s)
}

// DetectAnomalies posts the deck to the fact-check webhook. Without one
// configured it returns an empty payload.
func (c *Client) DetectAnomalies(ctx context.Context, s Submission) (map[string]any, error) {
	if !c.HasAnomaly() {
		return map[string]any{}, nil
	}
	return c.postDeck(ctx, "anomaly", c.cfg.AnomalyURL, s)
}

// Ingest forwards the deck to the vector store loader. The reply is ignored.
func (c *Client) Ingest(ctx context.Context, s Submission) error {
	if !c.HasIngest() {
		return nil
	}
	body, ctype, err := encodeSubmission(s)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, "ingest", c.cfg.IngestURL, ctype, body)
	return err
}

// Chat sends one advisor message and returns the reply text, "" when the
// service replies without one.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	body, _ := json.Marshal(map[string]string{"message": message})
	b, err := c.do(ctx, "chat", c.cfg.ChatURL, "application/json", body)
	if err != nil {
		return "", err
	}
	raw, err := analysis.DecodeRaw(b)
	if err != nil {
		return "", err
	}
	return analysis.CleanText(raw["message"]), nil
}

func (c *Client) postDeck(ctx context.Context, op, url string, s Submission) (map[string]any, error) {
	body, ctype, err := encodeSubmission(s)
	if err != nil {
		return nil, err
	}
	b, err := c.do(ctx, op, url, ctype, body)
	if err != nil {
		return nil, err
	}
	return analysis.DecodeRaw(b)
}

func (c *Client) do(ctx context.Context, op, url, ctype string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()
	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if res.StatusCode/100 != 2 {
		return nil, &TransportError{Op: op, Status: res.StatusCode, Body: analysis.Excerpt(string(b), 200)}
	}
	return b, nil
}

func encodeSubmission(s Submission) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, s.Filename))
	h.Set("Content-Type", "application/pdf")
	fw, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(s.File); err != nil {
		return nil, "", err
	}

	data, err := json.Marshal(s.Fields)
	if err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("data", string(data)); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
