package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/newsketch/newsketch"
	"github.com/newsketch/newsketch/stream"
)

// dateLayouts covers the formats seen across article dumps. Parsing
// falls through in order; an unparseable date leaves the zero time,
// which the transition model orders by arrival.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath string
		topK       int
		graphOnly  bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <articles.json>",
		Short: "Run every sketch over a JSON article dump and print a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := stream.DefaultConfig()
			if configPath != "" {
				var err error
				if config, err = stream.LoadConfig(configPath); err != nil {
					return err
				}
			}
			analyzer, err := stream.NewAnalyzer(config)
			if err != nil {
				return err
			}
			records, err := loadRecords(args[0])
			if err != nil {
				return err
			}
			duplicates := 0
			categories := make(map[string]struct{})
			for _, record := range records {
				if analyzer.Observe(record) {
					duplicates++
				}
				categories[record.Normalize().Category] = struct{}{}
			}
			if graphOnly {
				return printGraph(cmd, analyzer)
			}
			return printReport(cmd, analyzer, len(records), duplicates, categories, topK)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults apply when omitted)")
	cmd.Flags().IntVarP(&topK, "top", "k", 5, "number of tendencies to report")
	cmd.Flags().BoolVar(&graphOnly, "graph", false, "print only the category transition graph as JSON")
	return cmd
}

// loadRecords reads an article dump: either a top-level JSON array or
// newline-delimited JSON objects. Field names are matched leniently so
// dumps from different providers load without preprocessing.
func loadRecords(path string) ([]newsketch.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("newsketch: error reading articles file: %w", err)
	}
	parsed := gjson.ParseBytes(data)
	var records []newsketch.Record
	collect := func(value gjson.Result) bool {
		records = append(records, recordFromJSON(value))
		return true
	}
	if parsed.IsArray() {
		parsed.ForEach(func(_, value gjson.Result) bool { return collect(value) })
	} else {
		gjson.ForEachLine(string(data), collect)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("newsketch: no articles found in %s", path)
	}
	return records, nil
}

func recordFromJSON(value gjson.Result) newsketch.Record {
	record := newsketch.Record{
		ID:       value.Get("id").String(),
		Headline: firstString(value, "headline", "title"),
		Content:  firstString(value, "content", "short_description", "body"),
		Category: firstString(value, "category", "section"),
	}
	if raw := firstString(value, "date", "published_at", "pub_date"); raw != "" {
		for _, layout := range dateLayouts {
			if at, err := time.Parse(layout, raw); err == nil {
				record.PublishedAt = at
				break
			}
		}
	}
	return record
}

func firstString(value gjson.Result, paths ...string) string {
	for _, path := range paths {
		if field := value.Get(path); field.Exists() {
			return field.String()
		}
	}
	return ""
}

func printGraph(cmd *cobra.Command, analyzer *stream.Analyzer) error {
	encoded, err := json.MarshalIndent(analyzer.TransitionGraph(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}

func printReport(cmd *cobra.Command, analyzer *stream.Analyzer, total, duplicates int, categories map[string]struct{}, topK int) error {
	out := cmd.OutOrStdout()
	stats := analyzer.Stats()

	fmt.Fprintf(out, "records observed:    %d\n", total)
	fmt.Fprintf(out, "probable duplicates: %d\n", duplicates)
	fmt.Fprintf(out, "distinct headlines:  ~%d\n", stats.DistinctEstimate)
	fmt.Fprintf(out, "category F2:         ~%d\n", stats.SecondMomentValue)
	fmt.Fprintf(out, "filter fill rate:    %.4f\n", stats.FilterFillRate)
	if stats.FilterSaturated {
		fmt.Fprintln(out, "warning: dedup filter reached capacity; some records were not recorded for dedup")
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(out, "\ncategory frequencies (estimated):")
	for _, name := range names {
		fmt.Fprintf(out, "  %-20s %d\n", name, analyzer.CategoryFrequency(name))
	}

	fmt.Fprintf(out, "\ntop %d headline tendencies:\n", topK)
	for _, tendency := range analyzer.TopTendencies(topK) {
		fmt.Fprintf(out, "  %3d x [%s] %s\n", tendency.MemberCount, tendency.Category, tendency.Sample.Headline)
	}

	return printGraph(cmd, analyzer)
}
