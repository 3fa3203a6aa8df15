package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/starford/vaultdigest/internal/mcpserver"
)

// Generate runs one generation with the configured digest options and
// prints a single success line naming the destination.
func Generate(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.svc.Generate(ctx, rt.cfg.Digest)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Digest written to %s (%d documents", report.Destination, report.Documents)
	if report.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", report.Skipped)
	}
	_, err = fmt.Fprintln(rt.out, msg+")")
	return err
}

// Random prints the path of one document chosen outside the random
// section's excluded folders.
func Random(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := rt.svc.PickRandom(ctx, rt.svc.RandomDefaults().Exclude)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(rt.out, doc.Path)
	return err
}

// Verify checks the digest at path (the configured destination when empty)
// and prints its manifest as JSON.
func Verify(ctx context.Context, path string, opts ...Option) error {
	rt, err := setup(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	rep, err := rt.svc.Verify(ctx, path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(rt.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// History prints the most recent runs as a table.
func History(ctx context.Context, limit int, opts ...Option) error {
	rt, err := setup(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	runs, err := rt.svc.Runs(ctx, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGENERATED\tSTATUS\tDOCS\tSKIPPED\tBYTES\tDESTINATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.GeneratedAt.Local().Format(time.DateTime), r.Status,
			r.Documents, r.Skipped, r.Bytes, r.Destination)
	}
	return tw.Flush()
}

// Watch generates once, then regenerates after every settled burst of vault
// changes until ctx is cancelled.
func Watch(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.svc.Generate(ctx, rt.cfg.Digest); err != nil {
		rt.logger.Error("initial generation failed", slog.String("error", err.Error()))
	}
	return rt.watchVault(ctx)
}

// ServeMCP serves the digest tools over stdio until the client disconnects.
func ServeMCP(_ context.Context, opts ...Option) error {
	rt, err := setup(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc, rt.version).ServeStdio()
}
