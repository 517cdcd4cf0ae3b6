package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joshdurbin/url-mapper/internal/domain"
)

// Commands provides command-line operations for the client
type Commands struct {
	client *Client
	out    io.Writer
}

// NewCommands creates a new Commands instance printing to out
func NewCommands(client *Client, out io.Writer) *Commands {
	return &Commands{
		client: client,
		out:    out,
	}
}

// Create registers a short code and displays the result
func (c *Commands) Create(ctx context.Context, targetURL, shortCode string) error {
	view, err := c.client.CreateURL(ctx, targetURL, shortCode)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			fmt.Fprintf(c.out, "Short code '%s' already exists\n", shortCode)
			return nil
		}
		return err
	}

	fmt.Fprintf(c.out, "Short URL created:\n")
	c.printView(view)
	return nil
}

// Get resolves a short code and displays it
func (c *Commands) Get(ctx context.Context, shortCode string) error {
	view, err := c.client.RetrieveURL(ctx, shortCode)
	if err != nil {
		return c.notFoundOr(err, shortCode)
	}

	fmt.Fprintf(c.out, "URL Information:\n")
	c.printView(view)
	return nil
}

// Update points a short code at a new URL
func (c *Commands) Update(ctx context.Context, shortCode, targetURL string) error {
	if err := c.client.UpdateURL(ctx, shortCode, targetURL); err != nil {
		return c.notFoundOr(err, shortCode)
	}

	fmt.Fprintf(c.out, "Short code '%s' now points to %s\n", shortCode, targetURL)
	return nil
}

// Delete removes a short code
func (c *Commands) Delete(ctx context.Context, shortCode string) error {
	if err := c.client.DeleteURL(ctx, shortCode); err != nil {
		return c.notFoundOr(err, shortCode)
	}

	fmt.Fprintf(c.out, "Short code '%s' deleted successfully\n", shortCode)
	return nil
}

// Stats displays the full record for a short code
func (c *Commands) Stats(ctx context.Context, shortCode string) error {
	record, err := c.client.Stats(ctx, shortCode)
	if err != nil {
		return c.notFoundOr(err, shortCode)
	}

	fmt.Fprintf(c.out, "Statistics:\n")
	fmt.Fprintf(c.out, "ID: %d\n", record.ID)
	fmt.Fprintf(c.out, "Short Code: %s\n", record.ShortCode)
	fmt.Fprintf(c.out, "URL: %s\n", record.URL)
	fmt.Fprintf(c.out, "Created At: %s\n", domain.FormatTime(record.CreatedAt))
	fmt.Fprintf(c.out, "Updated At: %s\n", updatedLabel(record))
	fmt.Fprintf(c.out, "Access Count: %d\n", record.AccessCount)
	return nil
}

// List displays all mappings in a table format
func (c *Commands) List(ctx context.Context) error {
	records, err := c.client.ListURLs(ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(c.out, "No URLs found")
		return nil
	}

	fmt.Fprintf(c.out, "%-15s %-50s %-20s %-20s %s\n", "Short Code", "URL", "Created At", "Updated At", "Access Count")
	fmt.Fprintln(c.out, strings.Repeat("-", 120))

	for _, record := range records {
		target := truncate(record.URL, 50)

		updated := "Never"
		if record.UpdatedAt != nil {
			updated = record.UpdatedAt.UTC().Format("2006-01-02 15:04:05")
		}

		fmt.Fprintf(c.out, "%-15s %-50s %-20s %-20s %d\n",
			record.ShortCode,
			target,
			record.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			updated,
			record.AccessCount,
		)
	}

	return nil
}

func (c *Commands) printView(view *domain.MappingView) {
	fmt.Fprintf(c.out, "Short Code: %s\n", view.ShortCode)
	fmt.Fprintf(c.out, "URL: %s\n", view.URL)
	fmt.Fprintf(c.out, "Created At: %s\n", view.CreatedAt)
	if view.UpdatedAt != nil {
		fmt.Fprintf(c.out, "Updated At: %s\n", *view.UpdatedAt)
	} else {
		fmt.Fprintf(c.out, "Updated At: Never\n")
	}
}

func (c *Commands) notFoundOr(err error, shortCode string) error {
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(c.out, "Short code '%s' not found\n", shortCode)
		return nil
	}
	return err
}

// truncate shortens s to at most width runes, marking the cut with "..."
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

func updatedLabel(record *domain.MappingRecord) string {
	if record.UpdatedAt == nil {
		return "Never"
	}
	return domain.FormatTime(*record.UpdatedAt)
}
