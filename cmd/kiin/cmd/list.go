package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/content"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/textx"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
)

var (
	listType     string
	listCategory string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List content types and pack items",
	Long: `Lists the configured content types, or the items of one type.

Examples:
  kiin list                                # all content types
  kiin list --type tips                    # items of one type
  kiin list --type tips --category work    # restricted to a category`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listType, "type", "", "content type to list items of")
	listCmd.Flags().StringVar(&listCategory, "category", "", "restrict items to a category")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if listType == "" {
		return listTypes(cfg)
	}
	return listItems(cfg)
}

func listTypes(cfg *config.Config) error {
	fmt.Println(renderHeader("Content types"))
	fmt.Println()
	fmt.Printf("%-14s %-20s %-7s %s\n", "NAME", "LABEL", "ITEMS", "PACK")
	fmt.Println(strings.Repeat("-", 64))

	for i := range cfg.Types {
		tc := &cfg.Types[i]
		count := "-"
		if pack, err := content.LoadPack(tc.Name, tc.Pack, packFields(tc)); err == nil {
			count = strconv.Itoa(pack.Len())
		}
		fmt.Printf("%-14s %-20s %-7s %s\n", tc.Name, tc.Label, count, tc.Pack)
	}

	fmt.Println()
	fmt.Printf("Total: %d type(s)\n", len(cfg.Types))
	return nil
}

func listItems(cfg *config.Config) error {
	tc, err := cfg.Type(listType)
	if err != nil {
		return err
	}

	pack, err := content.LoadPack(tc.Name, tc.Pack, packFields(tc))
	if err != nil {
		return err
	}

	items := pack.Items()
	if listCategory != "" {
		items = pack.ByCategory(listCategory)
	}

	fmt.Println(renderHeader(tc.Label))
	fmt.Println()

	if len(items) == 0 {
		fmt.Printf("No items in category %q.\n", listCategory)
		fmt.Println()
		fmt.Println("Categories: " + strings.Join(pack.Categories(), ", "))
		return nil
	}

	fmt.Printf("%-5s %-16s %s\n", "ID", "CATEGORY", "HOOK")
	fmt.Println(strings.Repeat("-", 72))
	for _, item := range items {
		fmt.Printf("%-5d %-16s %s\n", item.ID, item.Category, textx.Truncate(item.Hook, 48, "..."))
	}

	fmt.Println()
	fmt.Printf("Total: %d item(s)\n", len(items))
	return nil
}

func packFields(tc *config.TypeConfig) content.Fields {
	return content.Fields{
		Items:   tc.ItemsField,
		Hook:    tc.HookField,
		Body:    tc.BodyField,
		Closing: tc.ClosingField,
	}
}
