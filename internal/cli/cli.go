// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/fluffyriot/skillboard/internal/dashboard"
	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/fluffyriot/skillboard/internal/report"
	"github.com/fluffyriot/skillboard/internal/session"
	"golang.org/x/term"
)

type Backend interface {
	dashboard.Fetcher
	Login(ctx context.Context, email, password string) (models.User, error)
}

type Renderer interface {
	Render(ctx context.Context, in report.Input) (report.Document, error)
}

type ExportOptions struct {
	Email    string
	Password string
	Out      string
}

// ParseExportFlags reads the arguments following "export".
func ParseExportFlags(args []string, reportName string) (ExportOptions, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	out := fs.String("out", report.Filename(reportName), "output file")
	if err := fs.Parse(args); err != nil {
		return ExportOptions{}, err
	}
	if strings.TrimSpace(*email) == "" {
		return ExportOptions{}, errors.New("--email is required")
	}
	return ExportOptions{Email: strings.TrimSpace(*email), Out: *out}, nil
}

// Export logs in, loads the user's collections and writes the structured
// report to opts.Out.
func Export(ctx context.Context, b Backend, r Renderer, opts ExportOptions, logger *slog.Logger) (report.Document, error) {
	user, err := b.Login(ctx, opts.Email, opts.Password)
	if err != nil {
		return report.Document{}, fmt.Errorf("failed to log in as %s: %w", opts.Email, err)
	}

	view := dashboard.NewController(b, logger).Load(ctx, session.Authenticated(user), dashboard.TabPosts)
	for _, n := range view.Notices {
		logger.Warn("Collection unavailable", "collection", n.Collection)
	}
	if !view.CanExport() {
		return report.Document{}, report.ErrNothingToExport
	}

	doc, err := r.Render(ctx, report.Input{
		User:        view.User,
		Posts:       view.Posts,
		Progress:    view.Progress,
		Exchanges:   view.Exchanges,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return report.Document{}, err
	}

	if err := os.WriteFile(opts.Out, doc.Data, 0o644); err != nil {
		return report.Document{}, fmt.Errorf("failed to write %s: %w", opts.Out, err)
	}
	return doc, nil
}

// HandleExport is the "skillboard export" entry point.
func HandleExport(b Backend, r Renderer, args []string, reportName string, logger *slog.Logger) {
	opts, err := ParseExportFlags(args, reportName)
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	opts.Password, err = readPassword(opts.Email)
	if err != nil {
		log.Fatalf("\nFailed to read password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	doc, err := Export(ctx, b, r, opts, logger)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	if len(doc.Failed) > 0 {
		fmt.Printf("Some sections could not be rendered: %s\n", strings.Join(doc.Failed, ", "))
	}
	fmt.Printf("Report written to %s (%d bytes).\n", opts.Out, len(doc.Data))
}

func readPassword(email string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Printf("Password for '%s': ", email)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}
