package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/jointwt/unfollow/internal"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func red(s string) string {
	return fmt.Sprintf("\033[31m%s\033[0m", s)
}
func green(s string) string {
	return fmt.Sprintf("\033[32m%s\033[0m", s)
}
func yellow(s string) string {
	return fmt.Sprintf("\033[33m%s\033[0m", s)
}

// userView is the structured form of a resolved user
type userView struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Handle    string   `json:"handle,omitempty" yaml:"handle,omitempty"`
	Bio       string   `json:"bio,omitempty" yaml:"bio,omitempty"`
	Followers int      `json:"followers,omitempty" yaml:"followers,omitempty"`
	CreatedAt string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Source    string   `json:"source" yaml:"source"`
	Unfollows []string `json:"unfollows,omitempty" yaml:"unfollows,omitempty"`
}

func newUserView(res internal.Result) userView {
	view := userView{
		ID:     res.ID,
		Handle: res.Identity.Handle,
		Source: string(res.Source),
	}
	if res.Found() {
		view.Name = res.Identity.Name
		view.Bio = res.Identity.Bio
		view.Followers = res.Identity.Followers
		if res.Identity.CreatedAt > 0 {
			view.CreatedAt = res.Identity.Created().UTC().Format(time.RFC3339)
		}
	}
	return view
}

func millis(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond))
}

// Printer renders operation results on stdout
type Printer struct {
	w      io.Writer
	format string
	color  bool
}

// NewPrinter ...
func NewPrinter(w io.Writer, format string) (*Printer, error) {
	switch format {
	case outputText, outputJSON, outputYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}

	var color bool
	if f, ok := w.(*os.File); ok {
		color = terminal.IsTerminal(int(f.Fd()))
	}

	return &Printer{w: w, format: format, color: color}, nil
}

func (p *Printer) paint(fn func(string) string, s string) string {
	if !p.color {
		return s
	}
	return fn(s)
}

func (p *Printer) encode(v interface{}) error {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = p.w.Write(data)
		return err
	}
}

func (p *Printer) formatResult(res internal.Result) string {
	if !res.Found() {
		if res.ID == "" {
			return p.paint(red, fmt.Sprintf("@%s not found on Twitter.", res.Identity.Handle))
		}
		return p.paint(red, fmt.Sprintf(
			"ID [%s] not found on Twitter. Possibly incorrect ID, or user suspended/deleted.",
			res.ID,
		))
	}

	line := fmt.Sprintf("%s (@%s) [%s]",
		p.paint(yellow, res.Identity.Name),
		res.Identity.Handle,
		res.ID,
	)
	if res.Source == internal.SourceCache {
		line += " (local store)"
	}
	return line
}

// Results prints resolved users
func (p *Printer) Results(results []internal.Result) error {
	if p.format != outputText {
		views := make([]userView, 0, len(results))
		for _, res := range results {
			views = append(views, newUserView(res))
		}
		return p.encode(views)
	}

	for _, res := range results {
		if _, err := fmt.Fprintln(p.w, p.formatResult(res)); err != nil {
			return err
		}
	}
	return nil
}

// Unfollowers prints recent unfollowers with when they left
func (p *Printer) Unfollowers(unfollowers []internal.Unfollower) error {
	if p.format != outputText {
		views := make([]userView, 0, len(unfollowers))
		for _, u := range unfollowers {
			view := newUserView(u.Result)
			for _, ms := range u.Unfollows {
				view.Unfollows = append(view.Unfollows, millis(ms).UTC().Format(time.RFC3339))
			}
			views = append(views, view)
		}
		return p.encode(views)
	}

	for idx, u := range unfollowers {
		line := fmt.Sprintf("User #%d: %s", idx, p.formatResult(u.Result))
		if n := len(u.Unfollows); n > 0 {
			line += fmt.Sprintf(" unfollowed %s", humanize.Time(millis(u.Unfollows[n-1])))
			if n > 1 {
				line += fmt.Sprintf(" (%d times)", n)
			}
		}
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return err
		}
	}
	return nil
}

// Refresh prints the outcome of a refresh
func (p *Printer) Refresh(report *internal.RefreshReport) error {
	if p.format != outputText {
		return p.encode(struct {
			Fetched  int      `json:"fetched" yaml:"fetched"`
			Previous int      `json:"previous" yaml:"previous"`
			Added    []string `json:"added" yaml:"added"`
			Removed  []string `json:"removed" yaml:"removed"`
		}{report.Fetched, report.Previous, report.Delta.Added, report.Delta.Removed})
	}

	_, err := fmt.Fprintf(p.w, "%s followers: %s new, %s unfollowed\n",
		humanize.Comma(int64(report.Fetched)),
		p.paint(green, fmt.Sprintf("+%d", len(report.Delta.Added))),
		p.paint(red, fmt.Sprintf("-%d", len(report.Delta.Removed))),
	)
	return err
}

// Sync prints the outcome of a cache sync
func (p *Printer) Sync(report *internal.SyncReport) error {
	if p.format != outputText {
		return p.encode(struct {
			Requested int `json:"requested" yaml:"requested"`
			Added     int `json:"added" yaml:"added"`
		}{report.Requested, report.Added})
	}

	_, err := fmt.Fprintf(p.w, "Stored %d new users\n", report.Added)
	return err
}

// Count prints the number of cached users
func (p *Printer) Count(n int) error {
	if p.format != outputText {
		return p.encode(struct {
			Users int `json:"users" yaml:"users"`
		}{n})
	}

	_, err := fmt.Fprintf(p.w, "There are %s users stored.\n", humanize.Comma(int64(n)))
	return err
}
