package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ebay_lister_v1/internal/config"
	"ebay_lister_v1/internal/middleware"
	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "listctl",
		Short:         "离线估价与运维工具",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newQuoteCmd(), newTokenCmd())
	return root
}

// ==================== quote ====================

type quoteFlags struct {
	compsFile string
	product   model.IdentifiedProduct
	condition string
}

// quoteOutput quote 命令输出
type quoteOutput struct {
	Analysis       *model.CompAnalysis       `json:"analysis,omitempty"`
	Recommendation model.PriceRecommendation `json:"recommendation"`
	Content        model.ListingContent      `json:"content"`
	Price          string                    `json:"price"`
}

func newQuoteCmd() *cobra.Command {
	f := &quoteFlags{}
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "根据 comp 文件计算三档价格与刊登文案",
		Example: `  listctl quote --comps comps.json --name "501 Jeans" --brand "Levi's" --condition very_good
  cat comps.json | listctl quote --comps - --name Jeans --condition like_new`,
		RunE: func(cmd *cobra.Command, args []string) error {
			grade, err := model.ParseConditionGrade(f.condition)
			if err != nil {
				return err
			}
			f.product.Condition = grade

			var comps []model.SoldListingRecord
			if f.compsFile != "" {
				if comps, err = readComps(cmd.InOrStdin(), f.compsFile); err != nil {
					return err
				}
			}

			out := quote(f.product, comps)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&f.compsFile, "comps", "", "comp JSON 数组文件，- 表示标准输入；不传表示没有市场数据")
	cmd.Flags().StringVar(&f.product.ProductName, "name", "", "商品名")
	cmd.Flags().StringVar(&f.product.Brand, "brand", "", "品牌")
	cmd.Flags().StringVar(&f.product.Model, "model", "", "型号")
	cmd.Flags().StringVar(&f.product.Category, "category", "", "类目")
	cmd.Flags().StringVar(&f.product.Size, "size", "", "尺码")
	cmd.Flags().StringVar(&f.product.Color, "color", "", "颜色")
	cmd.Flags().StringVar(&f.condition, "condition", "", "成色，如 like_new / very_good")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("condition")
	return cmd
}

// quote comps 为 nil 表示没有市场数据
func quote(product model.IdentifiedProduct, comps []model.SoldListingRecord) quoteOutput {
	var analysis *model.CompAnalysis
	if comps != nil {
		a := service.NewCompAggregator(nil).Analyze(comps)
		analysis = &a
	}
	rec := service.NewPricingEngine().Recommend(product, analysis)
	return quoteOutput{
		Analysis:       analysis,
		Recommendation: rec,
		Content:        service.NewContentGenerator().Compose(product, rec),
		Price:          service.FormatPrice(rec.RealisticPrice),
	}
}

func readComps(stdin io.Reader, path string) ([]model.SoldListingRecord, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read comps: %w", err)
	}

	comps := []model.SoldListingRecord{}
	if err := json.Unmarshal(data, &comps); err != nil {
		return nil, fmt.Errorf("parse comps: %w", err)
	}
	return comps, nil
}

// ==================== token ====================

func newTokenCmd() *cobra.Command {
	var operator, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "用 JWT_SECRET 签发 API 访问 token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			jwtCfg := &middleware.JWTConfig{
				SecretKey: cfg.Server.JWTSecret,
				TokenTTL:  cfg.Server.JWTTokenTTL,
				Issuer:    cfg.Server.JWTIssuer,
			}
			token, err := jwtCfg.GenerateToken(operator, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "admin", "调用方名称")
	cmd.Flags().StringVar(&role, "role", middleware.RoleOperator, "角色: operator | viewer")
	return cmd
}
