package service

import (
	"fmt"
	"strings"

	"valuescout/internal/model"
	"valuescout/internal/utils"
)

// LinkInput is the part of a product the link builder reads
type LinkInput struct {
	Brand     string
	Name      string
	StoreName string
	SourceURL string
}

// BuildRetailerLinks returns the outbound links for a product. A verified
// direct URL always comes first; the Google Shopping and Amazon search links
// are always present, so the result has at least two entries.
func BuildRetailerLinks(p LinkInput, region model.RegionInfo, aff *model.AffiliateConfig) []model.RetailerLink {
	links := make([]model.RetailerLink, 0, 3)
	query := utils.EncodeURIComponent(strings.TrimSpace(p.Brand + " " + p.Name))

	if utils.IsRealURL(p.SourceURL) {
		directURL := p.SourceURL
		if aff != nil && aff.ImpactID != "" && !utils.HostContains(directURL, "amazon") {
			directURL = utils.AppendQueryParam(directURL, "irclickid", aff.ImpactID)
		}

		storeName := strings.TrimSpace(p.StoreName)
		if storeName == "" {
			storeName = "Verified Store"
		}

		links = append(links, model.RetailerLink{
			Name:     "Direct: " + storeName,
			URL:      directURL,
			Icon:     model.IconGeneric,
			IsDirect: true,
		})
	}

	links = append(links, model.RetailerLink{
		Name: "Google Shopping",
		URL:  fmt.Sprintf("https://www.google.com/search?q=%s&tbm=shop", query),
		Icon: model.IconGoogle,
	})

	domain := region.Domain
	if domain == "" {
		domain = regionUSA.Domain
	}
	amazonURL := fmt.Sprintf("https://www.%s/s?k=%s", domain, query)
	if aff != nil && aff.AmazonTag != "" {
		amazonURL += "&tag=" + utils.EncodeURIComponent(aff.AmazonTag)
	}
	links = append(links, model.RetailerLink{
		Name: "Amazon Store",
		URL:  amazonURL,
		Icon: model.IconAmazon,
	})

	return links
}
