package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"freshpoint-watch/feature/product"
)

var (
	deviceIDPattern = regexp.MustCompile(`deviceId\s*=\s*"(.*?)"`)
	countPattern    = regexp.MustCompile(`^((posledni)|(\d+))\s(kus|kusy|kusu)!?$`)
	pricePattern    = regexp.MustCompile(`^\d+\.\d+$`)
)

// RecordError describes a single product entry that could not be parsed.
// A bad entry is skipped and reported; it does not fail the whole page.
type RecordError struct {
	// ProductID identifies the offending entry, zero when even the identity
	// could not be read.
	ProductID int
	// Err is the underlying parsing failure.
	Err error
}

func (e *RecordError) Error() string {
	if e.ProductID == 0 {
		return fmt.Sprintf("failed to parse product entry: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse product %d: %v", e.ProductID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Page is the parsed form of one product list page.
type Page struct {
	locationID   int
	locationName string
	snapshots    []product.Snapshot
	rejected     []*RecordError
}

// LocationID returns the location identity embedded in the page markup.
func (p *Page) LocationID() int { return p.locationID }

// LocationName returns the location display name from the page title.
func (p *Page) LocationName() string { return p.locationName }

// Snapshots returns the successfully parsed products in page order.
func (p *Page) Snapshots() []product.Snapshot { return p.snapshots }

// Rejected returns the product entries that were skipped as malformed.
func (p *Page) Rejected() []*RecordError { return p.rejected }

// Parse extracts the location identity, location name and product snapshots
// from the HTML contents of a product list page. Malformed product entries
// are skipped and reported via Rejected; a page whose location identity or
// name cannot be determined fails as a whole. The timestamp is stamped onto
// every parsed snapshot.
func Parse(contents string, timestamp time.Time) (*Page, error) {
	root, err := html.Parse(strings.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}

	page := &Page{}
	if page.locationID, err = findLocationID(root); err != nil {
		return nil, err
	}
	if page.locationName, err = findLocationName(root); err != nil {
		return nil, err
	}

	for _, node := range findProductNodes(root) {
		snapshot, err := parseProduct(node, page, timestamp)
		if err != nil {
			page.rejected = append(page.rejected, &RecordError{
				ProductID: attrInt(node, "data-id"),
				Err:       err,
			})
			continue
		}
		page.snapshots = append(page.snapshots, snapshot)
	}
	return page, nil
}

// findLocationID extracts the numeric device identity from the script tag
// that assigns the deviceId variable.
func findLocationID(root *html.Node) (int, error) {
	var locationID int
	found := false
	walk(root, func(n *html.Node) {
		if found || n.Type != html.ElementNode || n.Data != "script" {
			return
		}
		match := deviceIDPattern.FindStringSubmatch(text(n))
		if match == nil {
			return
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			return
		}
		locationID = id
		found = true
	})
	if !found {
		return 0, fmt.Errorf("failed to parse page: device identity not found")
	}
	return locationID, nil
}

// findLocationName extracts the location display name from the page title,
// which reads "<location> | FreshPoint".
func findLocationName(root *html.Node) (string, error) {
	var name string
	found := false
	walk(root, func(n *html.Node) {
		if found || n.Type != html.ElementNode || n.Data != "title" {
			return
		}
		name = strings.TrimSpace(strings.SplitN(text(n), "|", 2)[0])
		found = true
	})
	if !found {
		return "", fmt.Errorf("failed to parse page: title not found")
	}
	return name, nil
}

// findProductNodes returns the product entry elements in page order. An
// entry carries the "product" class token and a data-id attribute.
func findProductNodes(root *html.Node) []*html.Node {
	var nodes []*html.Node
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "product") && attr(n, "data-id") != "" {
			nodes = append(nodes, n)
		}
	})
	return nodes
}

func parseProduct(node *html.Node, page *Page, timestamp time.Time) (product.Snapshot, error) {
	productID, err := requireAttrInt(node, "data-id")
	if err != nil {
		return product.Snapshot{}, err
	}
	name, err := requireAttr(node, "data-name")
	if err != nil {
		return product.Snapshot{}, err
	}

	category, err := findCategory(node)
	if err != nil {
		return product.Snapshot{}, err
	}
	quantity, err := findQuantity(node)
	if err != nil {
		return product.Snapshot{}, err
	}
	priceFull, priceCurr, err := findPrices(node)
	if err != nil {
		return product.Snapshot{}, err
	}

	snapshot, err := product.NewSnapshot(product.SnapshotParams{
		ProductID:    productID,
		Name:         name,
		Category:     category,
		IsVegetarian: attr(node, "data-veggie") == "1",
		IsGlutenFree: attr(node, "data-glutenfree") == "1",
		Quantity:     quantity,
		PriceFull:    priceFull,
		PriceCurr:    priceCurr,
		PicURL:       attr(node, "data-photourl"),
		LocationID:   page.locationID,
		LocationName: page.locationName,
		Timestamp:    timestamp,
	})
	if err != nil {
		return product.Snapshot{}, err
	}
	return snapshot, nil
}

// findCategory returns the heading text of the category section the product
// entry sits in.
func findCategory(node *html.Node) (string, error) {
	if node.Parent == nil {
		return "", fmt.Errorf("category heading not found")
	}
	var headings []string
	walk(node.Parent, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "h2" {
			if heading := strings.TrimSpace(text(n)); heading != "" {
				headings = append(headings, heading)
			}
		}
	})
	if len(headings) != 1 {
		return "", fmt.Errorf("expected one category heading, found %d", len(headings))
	}
	return headings[0], nil
}

// findQuantity reads the stock count from the "N kusu" span. Sold-out
// entries carry the sold-out class and no count span.
func findQuantity(node *html.Node) (int, error) {
	if hasClass(node, "sold-out") {
		return 0, nil
	}
	counts := findSpans(node, countPattern)
	if len(counts) == 0 {
		return 0, nil
	}
	if len(counts) != 1 {
		return 0, fmt.Errorf("expected one count label, found %d", len(counts))
	}
	if strings.Contains(counts[0], "posledn") {
		return 1, nil
	}
	quantity, err := strconv.Atoi(strings.Fields(counts[0])[0])
	if err != nil {
		return 0, fmt.Errorf("failed to read count label %q: %w", counts[0], err)
	}
	return quantity, nil
}

// findPrices reads the price spans. A single span means the product sells at
// the full price; two spans carry the full and the discounted price.
func findPrices(node *html.Node) (priceFull, priceCurr float64, err error) {
	prices := findSpans(node, pricePattern)
	switch len(prices) {
	case 1:
		priceFull, err = strconv.ParseFloat(prices[0], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read price %q: %w", prices[0], err)
		}
		return priceFull, priceFull, nil
	case 2:
		priceFull, err = strconv.ParseFloat(prices[0], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read price %q: %w", prices[0], err)
		}
		priceCurr, err = strconv.ParseFloat(prices[1], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read price %q: %w", prices[1], err)
		}
		if priceCurr > priceFull {
			return 0, 0, fmt.Errorf(
				"current price %v is greater than the full price %v", priceCurr, priceFull)
		}
		return priceFull, priceCurr, nil
	default:
		return 0, 0, fmt.Errorf("expected one or two price labels, found %d", len(prices))
	}
}

// findSpans returns the normalized texts of the span descendants whose
// normalized text matches the pattern, in document order.
func findSpans(node *html.Node, pattern *regexp.Regexp) []string {
	var matched []string
	walk(node, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "span" {
			return
		}
		normalized := product.Normalize(text(n))
		if pattern.MatchString(normalized) {
			matched = append(matched, normalized)
		}
	})
	return matched
}

// walk visits every node of the subtree in document order.
func walk(node *html.Node, visit func(*html.Node)) {
	visit(node)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

// text concatenates the text node descendants of the given node.
func text(node *html.Node) string {
	var b strings.Builder
	walk(node, func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	})
	return b.String()
}

func attr(node *html.Node, name string) string {
	for _, a := range node.Attr {
		if a.Key == name {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func attrInt(node *html.Node, name string) int {
	value, err := strconv.Atoi(attr(node, name))
	if err != nil {
		return 0
	}
	return value
}

func requireAttr(node *html.Node, name string) (string, error) {
	value := attr(node, name)
	if value == "" {
		return "", fmt.Errorf("attribute %q is missing", name)
	}
	return value, nil
}

func requireAttrInt(node *html.Node, name string) (int, error) {
	value, err := requireAttr(node, name)
	if err != nil {
		return 0, err
	}
	number, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("attribute %q is not a number: %w", name, err)
	}
	return number, nil
}

func hasClass(node *html.Node, class string) bool {
	for _, token := range strings.Fields(attr(node, "class")) {
		if token == class {
			return true
		}
	}
	return false
}
