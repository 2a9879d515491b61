package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"docket/internal/config"
	"docket/internal/logging"
	"docket/internal/taxonomy"
)

func newTaxonomyCommand(ctx *commandContext) *cobra.Command {
	taxonomyCmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect and author the library taxonomy",
	}

	taxonomyCmd.AddCommand(newTaxonomyShowCommand(ctx))
	taxonomyCmd.AddCommand(newTaxonomyValidateCommand(ctx))
	taxonomyCmd.AddCommand(newTaxonomyAddAreaCommand(ctx))
	taxonomyCmd.AddCommand(newTaxonomyAddCategoryCommand(ctx))

	return taxonomyCmd
}

func taxonomyStore(cfg *config.Config) (*taxonomy.Store, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return taxonomy.NewStore(cfg.Paths.LibraryDir, logger), nil
}

func newTaxonomyShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective taxonomy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := taxonomyStore(cfg)
			if err != nil {
				return err
			}
			effective, violations, err := store.Effective()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0)
			for _, area := range effective.Areas {
				rows = append(rows, []string{area.RangeLabel(), area.Name, "", ""})
				for _, cat := range area.Categories {
					rows = append(rows, []string{
						"",
						"",
						fmt.Sprintf("%02d", cat.Number),
						cat.Name,
					})
				}
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "Taxonomy is empty")
				return nil
			}
			table := renderTable(
				[]string{"Area", "Name", "Category", "Name"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(out, table)

			if len(violations) > 0 {
				fmt.Fprintf(out, "\n%d advisory violations:\n", len(violations))
				for _, v := range violations {
					fmt.Fprintf(out, "  - %s\n", v.String())
				}
			}
			return nil
		},
	}
}

func newTaxonomyValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "List structural violations in the effective taxonomy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := taxonomyStore(cfg)
			if err != nil {
				return err
			}
			_, violations, err := store.Effective()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(violations) == 0 {
				fmt.Fprintln(out, "No violations found")
				return nil
			}
			for _, v := range violations {
				fmt.Fprintf(out, "  - %s\n", v.String())
			}
			return fmt.Errorf("%d taxonomy violations", len(violations))
		},
	}
}

func newTaxonomyAddAreaCommand(ctx *commandContext) *cobra.Command {
	var rangeFlag string

	cmd := &cobra.Command{
		Use:   "add-area <name>",
		Short: "Add a new area to the taxonomy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := taxonomyStore(cfg)
			if err != nil {
				return err
			}
			effective, _, err := store.Effective()
			if err != nil {
				return err
			}

			var lo, hi int
			if strings.TrimSpace(rangeFlag) != "" {
				lo, hi, err = parseAreaRange(rangeFlag)
				if err != nil {
					return err
				}
			} else {
				var ok bool
				lo, hi, ok = taxonomy.NextAreaRange(effective)
				if !ok {
					return fmt.Errorf("no free area ranges remain (maximum %d areas)", taxonomy.MaxAreas)
				}
			}

			name := strings.TrimSpace(args[0])
			effective.Areas = append(effective.Areas, taxonomy.Area{Lo: lo, Hi: hi, Name: name})
			if err := store.Author(effective); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added area %02d-%02d %s\n", lo, hi, name)
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeFlag, "range", "", "Explicit range for the area, e.g. 20-29")
	return cmd
}

func newTaxonomyAddCategoryCommand(ctx *commandContext) *cobra.Command {
	var numberFlag int
	var keywords []string

	cmd := &cobra.Command{
		Use:   "add-category <area-range> <name>",
		Short: "Add a new category to an area",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := taxonomyStore(cfg)
			if err != nil {
				return err
			}
			effective, _, err := store.Effective()
			if err != nil {
				return err
			}

			lo, hi, err := parseAreaRange(args[0])
			if err != nil {
				return err
			}
			areaIdx := -1
			for i, area := range effective.Areas {
				if area.Lo == lo && area.Hi == hi {
					areaIdx = i
					break
				}
			}
			if areaIdx < 0 {
				return fmt.Errorf("no area with range %02d-%02d; add it first with `docket taxonomy add-area`", lo, hi)
			}

			number := numberFlag
			if number == 0 {
				var ok bool
				number, ok = taxonomy.NextCategoryNumber(effective.Areas[areaIdx])
				if !ok {
					return fmt.Errorf("area %02d-%02d has no free category numbers", lo, hi)
				}
			}

			name := strings.TrimSpace(args[1])
			effective.Areas[areaIdx].Categories = append(effective.Areas[areaIdx].Categories, taxonomy.Category{
				Number:   number,
				Name:     name,
				Keywords: keywords,
			})
			if err := store.Author(effective); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %02d %s to area %02d-%02d\n", number, name, lo, hi)
			return nil
		},
	}

	cmd.Flags().IntVar(&numberFlag, "number", 0, "Explicit category number inside the area's range")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "Keyword for the offline classifier (repeatable)")
	return cmd
}

func parseAreaRange(value string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid area range %q, expected NN-NN", value)
	}
	lo, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid area range %q, expected NN-NN", value)
	}
	hi, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid area range %q, expected NN-NN", value)
	}
	return lo, hi, nil
}
