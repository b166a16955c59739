package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List student groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := client.ListGroups(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading groups: %w", err)
			}
			if len(groups) == 0 {
				warn("No groups")
				return nil
			}
			for _, g := range groups {
				fmt.Printf("  %6d  %s\n", g.ID, g.Name)
			}
			return nil
		},
	}
}

func newBooksCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "books <group-id>",
		Short: "List books available to a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseID("group", args[0])
			if err != nil {
				return err
			}
			books, err := client.SearchBooks(cmd.Context(), groupID, query)
			if err != nil {
				return fmt.Errorf("loading books: %w", err)
			}
			if len(books) == 0 {
				warn("Нет доступных книг для вашей группы")
				return nil
			}
			for _, b := range books {
				fmt.Printf("  %6d  %s  %s\n", b.ID, b.Name, color.HiBlackString(b.Author))
				fmt.Printf("          %s %d  %s\n",
					color.CyanString("доступно:"), b.Available, color.HiBlackString(b.CopyRange()))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by title or author")
	return cmd
}

func newStudentsCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "students <group-id>",
		Short: "List or search the students of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseID("group", args[0])
			if err != nil {
				return err
			}
			students, err := client.FindStudents(cmd.Context(), groupID, query)
			if err != nil {
				return fmt.Errorf("loading students: %w", err)
			}
			if len(students) == 0 {
				warn("Студенты не найдены")
				return nil
			}
			for _, s := range students {
				fmt.Printf("  %6d  %s\n", s.ID, s.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Search by name")
	return cmd
}

func newCopiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copies <book-id>",
		Short: "List available copy codes of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			codes, err := client.ListAvailableCopies(cmd.Context(), bookID)
			if err != nil {
				return fmt.Errorf("loading copies: %w", err)
			}
			if len(codes) == 0 {
				warn("Нет доступных экземпляров")
				return nil
			}
			for _, c := range codes {
				fmt.Println(c)
			}
			return nil
		},
	}
}
