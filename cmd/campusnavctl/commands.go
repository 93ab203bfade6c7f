package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	campusnav "github.com/kailas-cloud/campusnav/pkg/sdk"
)

func seedCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	mode := campusnav.SeedMode(c.String("mode"))
	var rep campusnav.SeedReport
	if path := c.String("file"); path != "" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("open dataset: %w", err)
		}
		defer func() { _ = f.Close() }()
		rep, err = client.SeedFrom(c.Context, f, mode)
		if err != nil {
			return err
		}
	} else if rep, err = client.Seed(c.Context, mode); err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "removed=%d created=%d skipped=%d failed=%d\n", rep.Removed, rep.Created, rep.Skipped, rep.Failed)
	for _, e := range rep.Errors {
		fmt.Fprintln(c.App.ErrWriter, "  ", e)
	}
	if rep.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d buildings failed", rep.Failed), 1)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.IsSet("lat") != c.IsSet("lng") {
		return fmt.Errorf("--lat and --lng must be given together")
	}

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	q := client.Search().
		Query(strings.Join(c.Args().Slice(), " ")).
		Category(c.String("category")).
		Department(c.String("department")).
		Limit(c.Int("limit"))
	if c.IsSet("lat") {
		q = q.Near(c.Float64("lat"), c.Float64("lng"))
	}
	hits, err := q.Do(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}
	return printHits(c.App.Writer, hits)
}

func printHits(w io.Writer, hits []campusnav.SearchHit) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tCATEGORY\tSCORE\tDISTANCE")
	for _, h := range hits {
		score, dist := "-", "-"
		if h.Score != nil {
			score = fmt.Sprintf("%.0f", *h.Score)
		}
		if h.DistanceKm != nil {
			dist = fmt.Sprintf("%.3f km", *h.DistanceKm)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", h.Slug, h.Name, h.Category, score, dist)
	}
	return tw.Flush()
}

func exportCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	out := c.App.Writer
	if path := c.String("out"); path != "" {
		f, err := os.Create(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	return client.ExportGeoJSON(c.Context, out)
}

func healthCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	h := client.Health(c.Context)
	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.App.Writer, "status:", h.Status)
	for _, name := range names {
		fmt.Fprintf(c.App.Writer, "  %s: %s\n", name, h.Checks[name])
	}
	if !h.OK() {
		return cli.Exit("unhealthy", 1)
	}
	return nil
}
