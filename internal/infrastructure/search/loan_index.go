package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
)

const (
	defaultSize = 20
	maxSize     = 100
)

// LoanIndex mirrors submitted applications into Elasticsearch for the analyst search.
type LoanIndex struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewLoanIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *LoanIndex {
	return &LoanIndex{ES: es, Index: index, Logger: logger}
}

type loanDoc struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	FullName    string  `json:"full_name"`
	TaxID       string  `json:"tax_id"`
	Email       string  `json:"email"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	SubmittedAt string  `json:"submitted_at"`
}

// IndexApplication upserts one application document.
func (x *LoanIndex) IndexApplication(ctx context.Context, a *entity.LoanApplication) error {
	doc := loanDoc{
		ID:          a.ID,
		UserID:      a.UserID,
		FullName:    a.FullName,
		TaxID:       a.TaxID,
		Email:       a.Email,
		Amount:      a.Amount,
		Status:      string(a.Status),
		SubmittedAt: a.SubmittedAt.Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.Index, DocumentID: strconv.FormatInt(a.ID, 10), Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		if x.Logger != nil {
			x.Logger.WithField("status", res.Status()).WithField("application_id", a.ID).Warn("es index response error")
		}
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// SearchApplications finds applications whose name or email contains q
// (case-insensitive), or whose CPF contains the digits of q. It returns
// application ids in relevance order. The wildcards run on the ".keyword"
// subfields that dynamic mapping adds to every string field.
func (x *LoanIndex) SearchApplications(ctx context.Context, q string, size int) ([]int64, error) {
	if size <= 0 || size > maxSize {
		size = defaultSize
	}
	should := []map[string]any{
		contains("full_name.keyword", q),
		contains("email.keyword", q),
	}
	if digits := simulator.DigitsOnly(q); digits != "" {
		should = append(should, contains("tax_id.keyword", digits))
	}
	query := map[string]any{
		"query": map[string]any{"bool": map[string]any{"should": should, "minimum_should_match": 1}},
		"size":  size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.Index), x.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source loanDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// contains is a substring match on a keyword field.
func contains(field, q string) map[string]any {
	return map[string]any{"wildcard": map[string]any{field: map[string]any{
		"value":            "*" + wildcardEscaper.Replace(strings.TrimSpace(q)) + "*",
		"case_insensitive": true,
	}}}
}
