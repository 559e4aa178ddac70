package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	idlc "github.com/idlc-dynamictype/idlc"
)

var (
	includePaths []string
	preprocess   bool
	ignoreCase   bool
)

func buildConfig() *idlc.Config {
	cfg := idlc.NewConfig()
	cfg.SetBool("preprocess", preprocess)
	cfg.SetStringSlice("include_paths", includePaths)
	cfg.SetBool("ignore_case", ignoreCase)
	return cfg
}

func main() {
	root := &cobra.Command{
		Use:   "idlc",
		Short: "Parse OMG IDL 4.2 into a DynamicType registry",
	}
	root.PersistentFlags().StringSliceVarP(&includePaths, "include", "I", nil, "preprocessor include path")
	root.PersistentFlags().BoolVar(&preprocess, "preprocess", false, "run the external C preprocessor first")
	root.PersistentFlags().BoolVar(&ignoreCase, "ignore-case", false, "fold identifier case for symbol lookups")

	root.AddCommand(parseCmd(), preprocessCmd(), astCmd(), replCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a file and print a summary of the registered types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := idlc.NewParserDriver(buildConfig())
			ctx, err := driver.ParseFile(args[0], nil)
			if err != nil {
				return err
			}
			for _, d := range ctx.Diagnostics {
				fmt.Fprintln(os.Stderr, d)
			}
			if !ctx.Success {
				return fmt.Errorf("parse failed")
			}
			fmt.Println(idlc.NewAstPrinter(color.NoColor == false).Print(ctx.Root))
			return nil
		},
	}
}

func preprocessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess <file>",
		Short: "Run the preprocessor bridge alone and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := idlc.NewParserDriver(buildConfig())
			out, err := driver.Preprocess(args[0], includePaths)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func astCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast <file>",
		Short: "Print the declaration tree, colorized on a terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := idlc.NewParserDriver(buildConfig())
			ctx, err := driver.ParseFile(args[0], nil)
			if err != nil {
				return err
			}
			if !ctx.Success {
				for _, d := range ctx.Diagnostics {
					fmt.Fprintln(os.Stderr, d)
				}
				return fmt.Errorf("parse failed")
			}
			fmt.Print(idlc.NewAstPrinter(!color.NoColor).Print(ctx.Root))
			return nil
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively parse one declaration at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			driver := idlc.NewParserDriver(buildConfig())
			var ctx *idlc.ParseContext

			for {
				text, err := line.Prompt("idlc> ")
				if err != nil {
					break
				}
				line.AppendHistory(text)
				ctx = driver.Parse(text, ctx)
				for _, d := range ctx.Diagnostics {
					fmt.Fprintln(os.Stderr, d)
				}
				if ctx.Success {
					fmt.Print(idlc.NewAstPrinter(!color.NoColor).Print(ctx.Root))
				}
			}
			return nil
		},
	}
}
