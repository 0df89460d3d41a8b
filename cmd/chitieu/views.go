package main

import (
	"time"

	"github.com/spf13/cobra"

	"chitieu/internal/cli"
	"chitieu/internal/core"
	"chitieu/internal/services"
)

// withSession runs fn against a fresh session rendering to stdout.
func withSession(cmd *cobra.Command, fn func(*services.Session, *cli.Renderer) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	h, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	return fn(h.session, cli.NewRenderer(cmd.OutOrStdout()))
}

func dailyCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show the transactions of one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *services.Session, r *cli.Renderer) error {
				v, err := s.Daily(cmd.Context(), date)
				if err != nil {
					return err
				}
				return r.Daily(v)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format(core.ISOLayout), "day to show (YYYY-MM-DD)")
	return cmd
}

func monthCmd() *cobra.Command {
	var month int
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show the transactions of a month of the current year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *services.Session, r *cli.Renderer) error {
				v, err := s.Monthly(cmd.Context(), month)
				if err != nil {
					return err
				}
				return r.Monthly(v)
			})
		},
	}
	cmd.Flags().IntVar(&month, "month", int(time.Now().Month()), "month (1-12)")
	return cmd
}

func chartCmd() *cobra.Command {
	var (
		mode       string
		start, end int
		category   string
	)
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Show income and expenses for a month range",
		Long: `Show the income/expense chart for the current month (monthly), January to
now (yearly) or --start..--end (custom). With --category the drill-down of
that category within the range is shown as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *services.Session, r *cli.Renderer) error {
				m, err := core.ParseChartMode(mode)
				if err != nil {
					return err
				}
				v, err := s.Chart(cmd.Context(), m, start, end)
				if err != nil {
					return err
				}
				if err := r.Chart(v); err != nil {
					return err
				}
				if category == "" {
					return nil
				}
				d, err := s.CategoryDetail(cmd.Context(), category)
				if err != nil {
					return err
				}
				return r.CategoryDetail(d)
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(core.ChartMonthly), "monthly, yearly or custom")
	cmd.Flags().IntVar(&start, "start", 1, "first month of a custom range")
	cmd.Flags().IntVar(&end, "end", int(time.Now().Month()), "last month of a custom range")
	cmd.Flags().StringVar(&category, "category", "", "drill into this category")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		year                      int
		content, amount, category string
		page                      int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search transactions of a year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *services.Session, r *cli.Renderer) error {
				v, err := s.Search(cmd.Context(), core.NewSearchQuery(year, content, amount, category))
				if err != nil {
					return err
				}
				for i := 1; i < page; i++ {
					res, err := s.Page(cmd.Context(), services.ViewSearch, services.Next)
					if err != nil {
						return err
					}
					if !res.Moved {
						break
					}
					v = *res.Search
				}
				return r.Search(v)
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "year to search")
	cmd.Flags().StringVar(&content, "content", "", "text contained in the description")
	cmd.Flags().StringVar(&amount, "amount", "", "exact amount")
	cmd.Flags().StringVar(&category, "category", "", "exact category")
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	return cmd
}
