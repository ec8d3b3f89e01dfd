package engine

import (
	"context"

	sc "github.com/aws/aws-sdk-go-v2/service/servicecatalog"
)

// scMock is a scripted ServiceCatalogAPI for unit tests: each call delegates
// to an optional func field, so tests stub only what they exercise.
type scMock struct {
	listPortfolios     func(*sc.ListPortfoliosInput) (*sc.ListPortfoliosOutput, error)
	associatePrincipal func(*sc.AssociatePrincipalWithPortfolioInput) (*sc.AssociatePrincipalWithPortfolioOutput, error)
	searchProducts     func(*sc.SearchProductsInput) (*sc.SearchProductsOutput, error)
	describeProduct    func(*sc.DescribeProductInput) (*sc.DescribeProductOutput, error)
	provisionProduct   func(*sc.ProvisionProductInput) (*sc.ProvisionProductOutput, error)
	describeRecord     func(*sc.DescribeRecordInput) (*sc.DescribeRecordOutput, error)

	provisionCalls int
	describeCalls  int
}

func (m *scMock) ListPortfolios(ctx context.Context, params *sc.ListPortfoliosInput, optFns ...func(*sc.Options)) (*sc.ListPortfoliosOutput, error) {
	return m.listPortfolios(params)
}

func (m *scMock) AssociatePrincipalWithPortfolio(ctx context.Context, params *sc.AssociatePrincipalWithPortfolioInput, optFns ...func(*sc.Options)) (*sc.AssociatePrincipalWithPortfolioOutput, error) {
	if m.associatePrincipal == nil {
		return &sc.AssociatePrincipalWithPortfolioOutput{}, nil
	}
	return m.associatePrincipal(params)
}

func (m *scMock) SearchProducts(ctx context.Context, params *sc.SearchProductsInput, optFns ...func(*sc.Options)) (*sc.SearchProductsOutput, error) {
	return m.searchProducts(params)
}

func (m *scMock) DescribeProduct(ctx context.Context, params *sc.DescribeProductInput, optFns ...func(*sc.Options)) (*sc.DescribeProductOutput, error) {
	return m.describeProduct(params)
}

func (m *scMock) ProvisionProduct(ctx context.Context, params *sc.ProvisionProductInput, optFns ...func(*sc.Options)) (*sc.ProvisionProductOutput, error) {
	m.provisionCalls++
	return m.provisionProduct(params)
}

func (m *scMock) DescribeRecord(ctx context.Context, params *sc.DescribeRecordInput, optFns ...func(*sc.Options)) (*sc.DescribeRecordOutput, error) {
	m.describeCalls++
	return m.describeRecord(params)
}
