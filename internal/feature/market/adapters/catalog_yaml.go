package adapters

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"stocksim_backend/internal/feature/market/usecase"
)

// catalogFile はシード用銘柄カタログ（stocks.yaml）の構造です。
type catalogFile struct {
	Stocks []catalogEntry `yaml:"stocks"`
}

type catalogEntry struct {
	Symbol            string   `yaml:"symbol"`
	Name              string   `yaml:"name"`
	Sector            string   `yaml:"sector"`
	Description       string   `yaml:"description"`
	Price             float64  `yaml:"price"`
	MarketCap         *float64 `yaml:"market_cap"`
	Volatility        float64  `yaml:"volatility"`
	JumpProbability   float64  `yaml:"jump_probability"`
	MaxJumpMultiplier float64  `yaml:"max_jump_multiplier"`
	PriceCap          *float64 `yaml:"price_cap"`
	Active            *bool    `yaml:"active"`
}

// LoadCatalogFile はYAMLカタログファイルを読み込みます。
func LoadCatalogFile(path string) ([]usecase.CreateStockInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog はYAMLカタログを銘柄作成入力に変換します。
// active を省略した銘柄は有効として扱います。値の検証は CreateStock が行います。
func LoadCatalog(r io.Reader) ([]usecase.CreateStockInput, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	inputs := make([]usecase.CreateStockInput, 0, len(file.Stocks))
	for i, e := range file.Stocks {
		if e.Symbol == "" {
			return nil, fmt.Errorf("catalog entry %d: symbol is required", i)
		}
		in := usecase.CreateStockInput{
			Symbol:            e.Symbol,
			Name:              e.Name,
			Sector:            e.Sector,
			Description:       e.Description,
			CurrentPrice:      decimal.NewFromFloat(e.Price),
			Volatility:        e.Volatility,
			JumpProbability:   e.JumpProbability,
			MaxJumpMultiplier: e.MaxJumpMultiplier,
			IsActive:          e.Active == nil || *e.Active,
		}
		if e.MarketCap != nil {
			in.MarketCap = decimal.NewNullDecimal(decimal.NewFromFloat(*e.MarketCap))
		}
		if e.PriceCap != nil {
			in.PriceCap = decimal.NewNullDecimal(decimal.NewFromFloat(*e.PriceCap))
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
