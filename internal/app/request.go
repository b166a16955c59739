package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/libreq/internal/directory"
	"github.com/blackwell-systems/libreq/internal/form"
	"github.com/blackwell-systems/libreq/internal/tui"
	"github.com/blackwell-systems/libreq/internal/util"
)

// requestInput is what the request command collected from its flags.
type requestInput struct {
	GroupID     int
	StudentID   int
	StudentName string
	BookID      int
	Quantity    int
	Copies      []string
}

// fillState selects everything in s the way the interactive form would,
// looking each id up in dir so that only offered choices can be sent.
func fillState(ctx context.Context, dir form.Directory, s *form.State, in requestInput) error {
	groups, err := dir.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("loading groups: %w", err)
	}
	group, found := findGroup(groups, in.GroupID)
	if !found {
		return fmt.Errorf("group %d: %w", in.GroupID, directory.ErrNotFound)
	}
	s.SelectGroup(group)

	student, err := resolveStudent(ctx, dir, group.ID, in)
	if err != nil {
		return err
	}
	if err := s.SelectStudent(student); err != nil {
		return err
	}

	books, err := dir.ListBooks(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("loading books: %w", err)
	}
	book, found := findBook(books, in.BookID)
	if !found {
		return fmt.Errorf("book %d is not offered to group %s: %w", in.BookID, group.Name, directory.ErrNotFound)
	}
	codes, err := dir.ListAvailableCopies(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("loading copies: %w", err)
	}
	if err := s.SelectBook(book, codes); err != nil {
		return err
	}

	if s.Variant().Mode == form.ModeQuantity {
		_, err = s.SetQuantity(in.Quantity)
		return err
	}
	if err := s.EditCopyText(strings.Join(in.Copies, "\n")); err != nil {
		return err
	}
	if s.Variant().Strict {
		_, err = s.SetDeclaredQuantity(in.Quantity)
	}
	return err
}

func resolveStudent(ctx context.Context, dir form.Directory, groupID int, in requestInput) (directory.Student, error) {
	query := ""
	if in.StudentID == 0 {
		query = strings.TrimSpace(in.StudentName)
		if query == "" {
			return directory.Student{}, errors.New("--student or --student-name is required")
		}
	}
	students, err := dir.FindStudents(ctx, groupID, query)
	if err != nil {
		return directory.Student{}, fmt.Errorf("loading students: %w", err)
	}
	for _, st := range students {
		if (in.StudentID != 0 && st.ID == in.StudentID) || (in.StudentID == 0 && st.Name == query) {
			return st, nil
		}
	}
	if in.StudentID == 0 {
		return directory.Student{}, fmt.Errorf("студент не найден: %q (%d совпадений)", query, len(students))
	}
	return directory.Student{}, fmt.Errorf("student %d: %w", in.StudentID, directory.ErrNotFound)
}

func findGroup(groups []directory.Group, id int) (directory.Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return directory.Group{}, false
}

func findBook(books []directory.Book, id int) (directory.Book, bool) {
	for _, b := range books {
		if b.ID == id {
			return b, true
		}
	}
	return directory.Book{}, false
}

// readCopyCodes reads one code per line from path ("-" for stdin).
func readCopyCodes(path string) ([]string, error) {
	var data []byte
	var err error
	if path == "-" {
		if util.IsInputTTY() {
			warn("Введите коды экземпляров, по одному на строку; Ctrl+D для завершения")
		}
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return form.ParseLines(string(data)), nil
}

func newRequestCmd() *cobra.Command {
	var (
		in         requestInput
		groupRaw   string
		copiesFile string
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Send a book request without the interactive form",
		Long: `Send a book request.

Copies are attached by quantity (the first N available copies) unless
--copy or --copies-file is given, in which case exactly those codes are sent.

Examples:
  libreq request --group 2 --student 5 --book 9 --quantity 2
  libreq request --group 2 --student-name "Иванов Иван" --book 9 --copy 09-01 --copy 09-02`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if groupRaw != "" {
				id, err := parseID("group", groupRaw)
				if err != nil {
					return err
				}
				in.GroupID = id
			} else if tui.ShouldUseTUI(cmd) {
				groups, err := client.ListGroups(ctx)
				if err != nil {
					return fmt.Errorf("loading groups: %w", err)
				}
				g, err := tui.RunGroupPicker(groups)
				if err != nil {
					return err
				}
				in.GroupID = g.ID
			} else {
				return errors.New("--group is required")
			}

			if copiesFile != "" {
				codes, err := readCopyCodes(copiesFile)
				if err != nil {
					return fmt.Errorf("reading copies: %w", err)
				}
				in.Copies = append(in.Copies, codes...)
			}

			variant := form.VariantFromConfig(cfg.Form)
			variant.Mode = form.ModeQuantity
			if len(in.Copies) > 0 {
				variant.Mode = form.ModeManual
				variant.Strict = strict || (cfg.Form.Strict && cmd.Flags().Changed("quantity"))
			}

			state := form.NewState(variant)
			if err := fillState(ctx, client, state, in); err != nil {
				return err
			}

			ctrl := form.NewController(state, client, logger)
			receipt, err := ctrl.Submit(ctx)
			if err != nil {
				var rejected *directory.RejectedError
				if errors.As(err, &rejected) {
					fail("%s", rejected.Error())
					return errors.New("request rejected")
				}
				return err
			}

			ok("%s", receipt.Message)
			if receipt.RequestID != "" {
				fmt.Printf("  %-8s %s\n", "статус:", client.StatusURL(receipt.RequestID))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&groupRaw, "group", "", "Group id (interactive picker when omitted)")
	cmd.Flags().IntVar(&in.StudentID, "student", 0, "Student id")
	cmd.Flags().StringVar(&in.StudentName, "student-name", "", "Student full name, exactly as listed by 'libreq students'")
	cmd.Flags().IntVar(&in.BookID, "book", 0, "Book id")
	cmd.Flags().IntVarP(&in.Quantity, "quantity", "n", 1, "Number of copies")
	cmd.Flags().StringArrayVar(&in.Copies, "copy", nil, "Copy code to attach (repeatable)")
	cmd.Flags().StringVar(&copiesFile, "copies-file", "", "File with one copy code per line (- for stdin)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Require the copy codes to match --quantity")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}
