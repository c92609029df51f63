package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/paperbank/internal/extract"
	"github.com/pavelanni/paperbank/internal/ingest"
	"github.com/pavelanni/paperbank/internal/model"
	"github.com/pavelanni/paperbank/internal/paper"
	"github.com/pavelanni/paperbank/internal/pdftext"
	"github.com/pavelanni/paperbank/internal/profile"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Extract one document and print the result as JSON without storing it",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
	f := cmd.Flags()
	f.StringP("profiles", "p", "", "Directory of subject profiles layered over the built-in ones")
	f.Bool("text", false, "FILE already contains extracted plain text")
	f.String("name", "", "Paper filename to use instead of FILE's base name")
	f.Int("max-pages", 0, "Stop reading PDFs after this many pages (0 = all)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	path := args[0]

	name := v.GetString("name")
	if name == "" {
		name = filepath.Base(path)
	}

	var text string
	if v.GetBool("text") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		text = string(data)
	} else {
		res, err := pdftext.Reader{MaxPages: v.GetInt("max-pages")}.File(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("extract text: %w", err)
		}
		text = res.Text
	}

	profiles, err := loadProfiles(v.GetString("profiles"))
	if err != nil {
		return err
	}
	var p *profile.Profile
	if id, err := paper.Parse(name); err == nil {
		p, _ = profiles.Lookup(id.SubjectCode, id.PaperType)
	}

	res, err := extract.Document(name, text, p)
	if err != nil {
		return fmt.Errorf("%s: %w", ingest.KindOf(err), err)
	}
	return writeJSON(v.GetString("output"), res)
}

func linkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link FILENAME",
		Short: "Print the companion mark scheme or question paper filename",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := paper.Parse(args[0])
			if err != nil {
				return err
			}
			var target model.PaperType
			switch id.PaperType {
			case model.PaperTypeQuestionPaper:
				target = model.PaperTypeMarkScheme
			case model.PaperTypeMarkScheme:
				target = model.PaperTypeQuestionPaper
			default:
				return fmt.Errorf("%s has no companion document", args[0])
			}
			name, ok := extract.MatchingFilename(id, target)
			if !ok {
				return fmt.Errorf("no %s mapping for %s", target, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}

func profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect subject extraction profiles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the built-in and configured profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd)
			v := viperForCmd(cmd)
			profiles, err := loadProfiles(v.GetString("profiles"))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tVERSION\tDELIMITERS\tTHRESHOLDS")
			for _, p := range profiles.List() {
				t := p.Config().DifficultyThresholds
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d/%d\n", p.Key(), p.Name(), p.Version(), len(p.Delimiters()), t.EasyMax, t.MediumMax)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringP("profiles", "p", "", "Directory of subject profiles layered over the built-in ones")
	addLogFlags(list)

	validate := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check profile files against the schema and compile their patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			failed := 0
			for _, path := range args {
				reg := profile.NewRegistry()
				if err := reg.LoadFile(path); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					failed++
					continue
				}
				for _, p := range reg.List() {
					fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%s)\n", path, p.Key())
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d profiles invalid", failed, len(args))
			}
			return nil
		},
	}
	addLogFlags(validate)

	cmd.AddCommand(list, validate)
	return cmd
}
