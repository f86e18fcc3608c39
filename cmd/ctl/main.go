// Package main provides the control CLI entry point.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"github.com/osa030/trackcore/internal/api/httpapi"
	"github.com/osa030/trackcore/internal/domain/rating"
)

var (
	app    = kingpin.New("trackcore-ctl", "trackcore playback engine control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "API token (or set TRACKCORE_TOKEN env)").Envar("TRACKCORE_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Get session status")

	// setup command
	setupCmd  = app.Command("setup", "Set up the player")
	setupMin  = setupCmd.Flag("min", "Minimum buffer in seconds").Default("5").Float64()
	setupPlay = setupCmd.Flag("play", "Buffer needed to start playing, in seconds").Default("10").Float64()
	setupMax  = setupCmd.Flag("max", "Maximum buffer in seconds").Default("50").Float64()
	setupWait = setupCmd.Flag("wait", "Wait for the buffer instead of reporting underruns").Bool()

	// load command
	loadCmd      = app.Command("load", "Replace the queue with a track")
	loadID       = loadCmd.Arg("id", "Track ID").Required().String()
	loadURL      = loadCmd.Arg("url", "Track URL").Required().String()
	loadTitle    = loadCmd.Flag("title", "Track title").Required().String()
	loadArtist   = loadCmd.Flag("artist", "Track artist").Required().String()
	loadDuration = loadCmd.Flag("duration", "Track duration").Duration()

	// playback command
	playbackCmd      = app.Command("playback", "Update playback state or position")
	playbackState    = playbackCmd.Flag("state", "playing, paused or stopped").Enum("playing", "paused", "stopped")
	playbackPosition = playbackCmd.Flag("position", "Position").Duration()
	playbackForce    = playbackCmd.Flag("force", "Play without waiting for the buffer").Bool()

	// reset command
	resetCmd = app.Command("reset", "Empty the queue")

	// remote command
	remoteCmd      = app.Command("remote", "Send a remote-control signal")
	remoteSignal   = remoteCmd.Arg("signal", "Signal name (see trackcore-server list-signals)").Required().String()
	remoteTrack    = remoteCmd.Flag("track", "Track ID for skip and play-id").String()
	remotePosition = remoteCmd.Flag("position", "Position for seek").Duration()
	remoteRating   = remoteCmd.Flag("rating", "Rating for set-rating").Float64()

	// events command
	eventsCmd   = app.Command("events", "Stream session events")
	eventsTypes = eventsCmd.Flag("type", "Event type to show (repeatable)").Strings()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := &client{base: strings.TrimRight(*server, "/"), token: *token, http: &http.Client{}}

	var err error
	switch command {
	case statusCmd.FullCommand():
		err = c.status(ctx)
	case setupCmd.FullCommand():
		err = c.send(ctx, http.MethodPost, "/v1/player", map[string]any{
			"minBuffer": *setupMin, "playBuffer": *setupPlay, "maxBuffer": *setupMax, "waitForBuffer": *setupWait,
		}, nil)
	case loadCmd.FullCommand():
		t := map[string]any{"id": *loadID, "url": *loadURL, "title": *loadTitle, "artist": *loadArtist}
		if *loadDuration > 0 {
			t["duration"] = loadDuration.Seconds()
		}
		err = c.send(ctx, http.MethodPut, "/v1/queue/now-playing", t, nil)
	case playbackCmd.FullCommand():
		body := map[string]any{"force": *playbackForce}
		if *playbackState != "" {
			body["state"] = *playbackState
		}
		if *playbackPosition > 0 {
			body["position"] = playbackPosition.Seconds()
		}
		err = c.send(ctx, http.MethodPost, "/v1/playback", body, nil)
	case resetCmd.FullCommand():
		err = c.send(ctx, http.MethodPost, "/v1/reset", nil, nil)
	case remoteCmd.FullCommand():
		err = c.remote(ctx)
	case eventsCmd.FullCommand():
		err = c.events(ctx, *eventsTypes)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode request")
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(httpapi.TokenHeader, c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		var e httpapi.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			return nil, errors.Newf("%s %s: %s", method, path, resp.Status)
		}
		return nil, errors.Newf("%s (%s)", e.Error, e.Kind)
	}
	return resp, nil
}

// send issues a request and prints the resulting status unless out is set.
func (c *client) send(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out != nil {
		return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "failed to decode response")
	}
	var st httpapi.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil || st.Queue == nil {
		fmt.Println("OK")
		return nil
	}
	printStatus(st)
	return nil
}

func (c *client) status(ctx context.Context) error {
	var st httpapi.Status
	if err := c.send(ctx, http.MethodGet, "/v1/status", nil, &st); err != nil {
		return err
	}
	printStatus(st)
	return nil
}

func (c *client) remote(ctx context.Context) error {
	req := httpapi.RemoteRequest{TrackID: *remoteTrack}
	if *remotePosition > 0 || *remoteSignal == "seek" {
		p := remotePosition.Seconds()
		req.Position = &p
	}
	if *remoteSignal == "set-rating" {
		v := rating.Score(*remoteRating)
		req.Rating = &v
	}

	var ack httpapi.RemoteResponse
	if err := c.send(ctx, http.MethodPost, "/v1/remote/"+*remoteSignal, req, &ack); err != nil {
		return err
	}
	fmt.Printf("Sent %s (%s)\n", ack.Signal, ack.Event)
	return nil
}

func (c *client) events(ctx context.Context, types []string) error {
	path := "/v1/events"
	if len(types) > 0 {
		path += "?type=" + strings.Join(types, ",")
	}
	resp, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			fmt.Printf("%s %-24s %s\n", time.Now().Format(time.TimeOnly), event, strings.TrimPrefix(line, "data: "))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "event stream failed")
	}
	return nil
}

func printStatus(s httpapi.Status) {
	fmt.Println("\n=== CURRENT SESSION STATUS ===")
	fmt.Printf("State: %s (%d)\n", s.State, s.StateCode)
	fmt.Printf("Queue Size: %d\n", len(s.Queue))
	fmt.Printf("Play Intent: %v\n", s.PlayIntent)

	if s.Track != nil {
		fmt.Printf("\nCurrent Track:\n")
		fmt.Printf("  Track ID: %v\n", s.Track["id"])
		fmt.Printf("  Title: %v\n", s.Track["title"])
		fmt.Printf("  Artist: %v\n", s.Track["artist"])
		fmt.Printf("  URL: %v\n", s.Track["url"])
		fmt.Printf("  Position: %.1fs / %.1fs\n", s.Position, s.Duration)
		fmt.Printf("  Buffered: %.1fs ahead, %s cached\n", s.Buffered, s.Cached)
	} else {
		fmt.Println("\nNo track loaded")
	}
	fmt.Println()
}
