// Command console talks to a running assistant from the terminal. Typed lines
// stand in for recognized speech and spoken replies are printed.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"webby-assistant/internal/api/assistant"
	"webby-assistant/pkg/log"
	websocketPkg "webby-assistant/pkg/websocket"
)

type options struct {
	baseURL  string
	userName string
	quiet    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "http://localhost:3000", "assistant server base URL")
	flag.StringVar(&opts.userName, "name", "", "name the assistant greets you by")
	flag.BoolVar(&opts.quiet, "quiet", false, "only print what the assistant says")
	flag.Parse()

	logger := log.NewLogger()
	logger.SetLevel(logrus.WarnLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *logrus.Logger) error {
	session, err := createSession(ctx, opts.baseURL, opts.userName)
	if err != nil {
		return err
	}

	wsURL, err := websocketURL(opts.baseURL)
	if err != nil {
		return err
	}

	client, err := websocketPkg.Dial(ctx, websocketPkg.Config{URL: wsURL, Token: session.Token}, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SendEvent(assistant.EventCapabilities, assistant.CapabilitiesPayload{
		Recognition: true,
		Synthesis:   true,
		Microphone:  true,
		Voices:      []assistant.VoiceInfo{{Name: "Console", Lang: "en-US"}},
	}); err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	p := &printer{quiet: opts.quiet, interactive: interactive}

	lines := make(chan string)
	go readLines(lines)

	for {
		select {
		case <-ctx.Done():
			return nil

		case d, ok := <-client.Directives():
			if !ok {
				return fmt.Errorf("connection closed by server")
			}
			if err := handleDirective(client, p, d); err != nil {
				return err
			}

		case line, ok := <-lines:
			if !ok {
				// Give in-flight replies a moment before hanging up.
				drainFor(client, p, 3*time.Second)
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				p.prompt()
				continue
			}
			if err := client.SendEvent(assistant.EventRecognitionResult, assistant.RecognitionResultPayload{
				Results: [][]string{{line}},
			}); err != nil {
				return err
			}
		}
	}
}

func createSession(ctx context.Context, baseURL, userName string) (*assistant.CreateSessionResponse, error) {
	body, err := jsoniter.Marshal(assistant.CreateSessionRequest{UserName: userName})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/v1/assistant/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := &http.Client{Timeout: 10 * time.Second}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create session: unexpected status %d", res.StatusCode)
	}

	var out assistant.CreateSessionResponse
	if err := jsoniter.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &out, nil
}

func websocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/api/v1/assistant/ws"

	return u.String(), nil
}

func readLines(out chan<- string) {
	defer close(out)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func drainFor(client websocketPkg.IClient, p *printer, d time.Duration) {
	deadline := time.After(d)
	for {
		select {
		case dir, ok := <-client.Directives():
			if !ok {
				return
			}
			_ = handleDirective(client, p, dir)
		case <-deadline:
			return
		}
	}
}

// handleDirective prints d and acknowledges it the way a browser would.
func handleDirective(client websocketPkg.IClient, p *printer, d websocketPkg.Directive) error {
	switch d.Type {
	case assistant.DirectiveStartListening:
		return client.SendEvent(assistant.EventRecognitionStart, nil)

	case assistant.DirectiveSpeak:
		var payload assistant.SpeakPayload
		if err := jsoniter.Unmarshal(d.Payload, &payload); err != nil {
			return err
		}
		p.say(payload.Utterance.Text)
		return client.SendEvent(assistant.EventSpeechEnd, assistant.SpeechEndPayload{
			UtteranceID: payload.Utterance.ID,
		})

	case assistant.DirectiveNotify:
		var payload assistant.TextPayload
		if err := jsoniter.Unmarshal(d.Payload, &payload); err == nil {
			p.info("notice", payload.Text)
		}

	case assistant.DirectiveSetVisible:
		var payload assistant.SetVisiblePayload
		if err := jsoniter.Unmarshal(d.Payload, &payload); err == nil && payload.Visible {
			p.info("scene", payload.Entity+" shown")
		}

	case assistant.DirectiveHighlight:
		var payload assistant.HighlightPayload
		if err := jsoniter.Unmarshal(d.Payload, &payload); err == nil {
			p.info("scene", payload.Target+" highlighted")
		}

	case assistant.DirectivePlaySound:
		p.info("sound", "chime")

	case assistant.DirectiveError:
		var payload assistant.ErrorPayload
		if err := jsoniter.Unmarshal(d.Payload, &payload); err == nil {
			p.info("error", payload.Message)
		}
	}

	return nil
}

type printer struct {
	quiet       bool
	interactive bool
}

func (p *printer) say(text string) {
	fmt.Printf("\rwebby> %s\n", text)
	p.prompt()
}

func (p *printer) info(kind, text string) {
	if p.quiet {
		return
	}
	fmt.Printf("\r[%s] %s\n", kind, text)
	p.prompt()
}

func (p *printer) prompt() {
	if p.interactive {
		fmt.Print("you> ")
	}
}
