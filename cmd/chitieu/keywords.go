package main

import (
	"strings"

	"github.com/spf13/cobra"

	"chitieu/internal/cli"
	"chitieu/internal/services"
)

func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List and edit category keywords",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *services.Session, r *cli.Renderer) error {
				sets, err := s.Keywords(cmd.Context())
				if err != nil {
					return err
				}
				return r.Keywords(sets)
			})
		},
	}
	cmd.AddCommand(addKeywordCmd())
	cmd.AddCommand(deleteKeywordCmd())
	return cmd
}

func addKeywordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <category> <keyword>[,<keyword>...]",
		Short: "Attach keywords to a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *services.Session, r *cli.Renderer) error {
				sets, err := s.AddKeyword(cmd.Context(), args[0], strings.Join(args[1:], ","))
				if err != nil {
					return err
				}
				return r.Keywords(sets)
			})
		},
	}
}

func deleteKeywordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category> <keyword>",
		Short: "Remove a keyword from a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *services.Session, r *cli.Renderer) error {
				sets, err := s.DeleteKeyword(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return r.Keywords(sets)
			})
		},
	}
}
