package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	sc "github.com/aws/aws-sdk-go-v2/service/servicecatalog"
	sctypes "github.com/aws/aws-sdk-go-v2/service/servicecatalog/types"
	"github.com/tenantops/account-factory/internal/aws"
)

const (
	portfolioName = "AWS Control Tower Account Factory Portfolio"
	productName   = "AWS Control Tower Account Factory"
)

// Catalog identifies the account factory product inside Service Catalog.
// Resolved once at startup and passed into the Client as immutable
// configuration; nothing re-resolves it at request time.
type Catalog struct {
	PortfolioID            string
	ProductID              string
	ProvisioningArtifactID string
}

// DiscoverCatalog locates the account factory portfolio and product and
// associates roleARN with the portfolio so the worker may provision from it.
func DiscoverCatalog(ctx context.Context, client aws.ServiceCatalogAPI, roleARN string) (Catalog, error) {
	var cat Catalog

	portfolioID, err := findPortfolio(ctx, client)
	if err != nil {
		return cat, err
	}
	cat.PortfolioID = portfolioID

	// Association is idempotent; failures here are survivable when the
	// principal was associated out of band, so log and continue.
	_, err = client.AssociatePrincipalWithPortfolio(ctx, &sc.AssociatePrincipalWithPortfolioInput{
		PortfolioId:   &cat.PortfolioID,
		PrincipalARN:  &roleARN,
		PrincipalType: sctypes.PrincipalTypeIam,
	})
	if err != nil {
		log.Printf("[engine] unable to associate principal with portfolio %s: %v", cat.PortfolioID, err)
	}

	products, err := client.SearchProducts(ctx, &sc.SearchProductsInput{
		Filters: map[string][]string{"Owner": {"AWS Control Tower"}},
	})
	if err != nil {
		return cat, fmt.Errorf("search products: %w", err)
	}
	for _, p := range products.ProductViewSummaries {
		if p.Name != nil && *p.Name == productName && p.ProductId != nil {
			cat.ProductID = *p.ProductId
			break
		}
	}
	if cat.ProductID == "" {
		return cat, fmt.Errorf("unable to locate product %q", productName)
	}

	detail, err := client.DescribeProduct(ctx, &sc.DescribeProductInput{Id: &cat.ProductID})
	if err != nil {
		return cat, fmt.Errorf("describe product %s: %w", cat.ProductID, err)
	}
	for _, artifact := range detail.ProvisioningArtifacts {
		if artifact.Guidance == sctypes.ProvisioningArtifactGuidanceDefault && artifact.Id != nil {
			cat.ProvisioningArtifactID = *artifact.Id
			break
		}
	}
	if cat.ProvisioningArtifactID == "" {
		return cat, errors.New("unable to locate active provisioning artifact")
	}

	return cat, nil
}

func findPortfolio(ctx context.Context, client aws.ServiceCatalogAPI) (string, error) {
	var pageToken *string
	for {
		out, err := client.ListPortfolios(ctx, &sc.ListPortfoliosInput{PageToken: pageToken})
		if err != nil {
			return "", fmt.Errorf("list portfolios: %w", err)
		}
		for _, portfolio := range out.PortfolioDetails {
			if portfolio.DisplayName != nil && *portfolio.DisplayName == portfolioName && portfolio.Id != nil {
				return *portfolio.Id, nil
			}
		}
		if out.NextPageToken == nil || *out.NextPageToken == "" {
			return "", fmt.Errorf("unable to locate portfolio %q", portfolioName)
		}
		pageToken = out.NextPageToken
	}
}
