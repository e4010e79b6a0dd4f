package scraper

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Dígitos com separadores de milhar opcionais e exatamente duas casas decimais.
var pricePattern = regexp.MustCompile(`\d[\d,]*\.\d\d`)

// ParsePrice extrai o primeiro valor monetário do texto, ex.: "Now $1,299.00!" -> 1299.00.
//
// Só aceita valores com ponto e duas casas: "49.9" e "49" não casam e
// retornam *ParseError. Não há detecção de moeda nem de locale.
func ParsePrice(text string) (decimal.Decimal, error) {
	match := pricePattern.FindString(text)
	if match == "" {
		return decimal.Zero, &ParseError{Text: text}
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return decimal.Zero, &ParseError{Text: text}
	}
	return price, nil
}
