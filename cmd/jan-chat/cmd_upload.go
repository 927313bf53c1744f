package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload documents for retrieval",
}

var uploadFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Upload a PDF, DOCX or TXT file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			content, err := io.ReadAll(io.LimitReader(f, app.coord.MaxUploadBytes()+1))
			if err != nil {
				return err
			}
			_, err = app.coord.UploadFile(ctx, filepath.Base(path), content)
			return err
		})
	},
}

var uploadTextCmd = &cobra.Command{
	Use:   "text [text]",
	Short: "Upload pasted text as a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		fromStdin, _ := cmd.Flags().GetBool("stdin")

		text := strings.Join(args, " ")
		if fromStdin {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			text = string(data)
		}

		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			_, err := app.coord.UploadDocument(ctx, text, title)
			return err
		})
	},
}

func init() {
	uploadCmd.AddCommand(uploadFileCmd)
	uploadCmd.AddCommand(uploadTextCmd)

	uploadTextCmd.Flags().String("title", "", "Document title (default \"Text Document\")")
	uploadTextCmd.Flags().Bool("stdin", false, "Read the document from standard input")
}
