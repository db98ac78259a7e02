package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/pkg/config"
	"github.com/wonny/screener/pkg/logger"
)

// strategiesCmd prints the active catalog
var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "전략 카탈로그 조회",
	Long: `현재 적용되는 전략 목록과 조건, 카탈로그 해시를 출력합니다.
SCREENER_STRATEGY_FILE이 지정되면 해당 YAML 파일을 검증 후 사용합니다.`,
	RunE: runStrategies,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategies(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	catalog, err := loadCatalog(cfg, logger.New(cfg))
	if err != nil {
		return err
	}

	hash, err := catalog.Hash()
	if err != nil {
		return fmt.Errorf("hash catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Strategy catalog (%d strategies)\n", catalog.Len())
	fmt.Fprintf(out, "Hash: %s\n", hash)

	for i, def := range catalog.Definitions() {
		fmt.Fprintf(out, "\n%d. %s [%s]\n", i+1, def.Name, def.Key)
		for _, p := range def.Predicates {
			fmt.Fprintf(out, "   - %s\n", p.String())
		}
		fmt.Fprintf(out, "   columns: %s\n", strings.Join(def.Columns, ", "))
	}

	return nil
}
