package parse

import (
	"encoding/xml"
	"strings"
)

// --- XML Structs for Sitemap Parsing ---

// XMLURL represents a <url> element in a sitemap
type XMLURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// XMLURLSet represents a <urlset> element in a sitemap
type XMLURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []XMLURL `xml:"url"`
}

// XMLSitemap represents a <sitemap> element in a sitemap index file
type XMLSitemap struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// XMLSitemapIndex represents a <sitemapindex> element
type XMLSitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []XMLSitemap `xml:"sitemap"`
}

// SitemapDocument is the decoded form of one sitemap fetch: either a set of
// page URLs or a set of nested sitemap URLs, never both
type SitemapDocument struct {
	IsIndex  bool
	PageURLs []string
	Sitemaps []string
}

// ParseSitemapDocument decodes sitemap XML, accepting both <urlset> and
// <sitemapindex> roots. Returns an error only if the body decodes as neither.
func ParseSitemapDocument(body []byte) (*SitemapDocument, error) {
	var urlSet XMLURLSet
	if err := xml.Unmarshal(body, &urlSet); err == nil && urlSet.XMLName.Local == "urlset" {
		doc := &SitemapDocument{}
		for _, u := range urlSet.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				doc.PageURLs = append(doc.PageURLs, loc)
			}
		}
		return doc, nil
	}

	var index XMLSitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && index.XMLName.Local == "sitemapindex" {
		doc := &SitemapDocument{IsIndex: true}
		for _, s := range index.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				doc.Sitemaps = append(doc.Sitemaps, loc)
			}
		}
		return doc, nil
	}

	var probe struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(body, &probe); err != nil {
		return nil, err
	}
	return nil, xml.UnmarshalError("document is neither <urlset> nor <sitemapindex>")
}
