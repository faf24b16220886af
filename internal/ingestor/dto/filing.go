package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SearchRequest is the body of an insider-trading query.
type SearchRequest struct {
	Query string              `json:"query"`
	From  string              `json:"from"`
	Size  string              `json:"size"`
	Sort  []map[string]SortBy `json:"sort"`
}

type SortBy struct {
	Order string `json:"order"`
}

// SearchResponse is the insider-trading query result. Only the first page is read.
type SearchResponse struct {
	Total        SearchTotal `json:"total"`
	Transactions []Filing    `json:"transactions"`
}

type SearchTotal struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

// Filing is one Form 4 document as returned by the filings source.
type Filing struct {
	AccessionNo        string             `json:"accessionNo"`
	FiledAt            string             `json:"filedAt"`
	Issuer             Issuer             `json:"issuer"`
	ReportingOwner     ReportingOwner     `json:"reportingOwner"`
	NonDerivativeTable NonDerivativeTable `json:"nonDerivativeTable"`
}

type Issuer struct {
	CIK           FlexString `json:"cik"`
	Name          string     `json:"name"`
	TradingSymbol string     `json:"tradingSymbol"`
}

type ReportingOwner struct {
	CIK          FlexString   `json:"cik"`
	Name         string       `json:"name"`
	Relationship Relationship `json:"relationship"`
}

type Relationship struct {
	IsDirector        bool   `json:"isDirector"`
	IsOfficer         bool   `json:"isOfficer"`
	OfficerTitle      string `json:"officerTitle"`
	IsTenPercentOwner bool   `json:"isTenPercentOwner"`
	IsOther           bool   `json:"isOther"`
}

type NonDerivativeTable struct {
	Transactions []Transaction `json:"transactions"`
}

type Transaction struct {
	SecurityTitle   string  `json:"securityTitle"`
	TransactionDate string  `json:"transactionDate"`
	Coding          Coding  `json:"coding"`
	Amounts         Amounts `json:"amounts"`
}

type Coding struct {
	FormType string `json:"formType"`
	Code     string `json:"code"`
}

// Amounts holds the reported quantities.
type Amounts struct {
	Shares               FlexFloat `json:"shares"`
	PricePerShare        FlexFloat `json:"pricePerShare"`
	AcquiredDisposedCode string    `json:"acquiredDisposedCode"`
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

// FlexFloat decodes a JSON number or numeric string. Null, absent, unparseable
// and non-finite values decode as not present.
type FlexFloat struct {
	value float64
	valid bool
}

// NewFlexFloat returns a present value.
func NewFlexFloat(v float64) FlexFloat {
	return FlexFloat{value: v, valid: true}
}

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	*f = FlexFloat{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		raw = strings.TrimSpace(v)
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil
	}
	*f = FlexFloat{value: parsed, valid: true}
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// Float returns the value and whether it was present.
func (f FlexFloat) Float() (float64, bool) {
	return f.value, f.valid
}
