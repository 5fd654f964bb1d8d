package internal

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Role identifies who authored a message
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// ProductDisplayType is the discriminator carried by product payloads
const ProductDisplayType = "product-display"

// ProductDisplayFunction is the tool whose response carries product cards
const ProductDisplayFunction = "product_display_tool"

// Message is one entry in the live conversation
type Message struct {
	Role                     Role                   `json:"type" yaml:"type"`
	Content                  string                 `json:"content" yaml:"content"`
	ID                       string                 `json:"id" yaml:"id"`
	Agent                    string                 `json:"agent,omitempty" yaml:"agent,omitempty"`
	FinalReportWithCitations bool                   `json:"finalReportWithCitations,omitempty" yaml:"finalReportWithCitations,omitempty"`
	Timestamp                int64                  `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	ProductData              *ProductDisplayPayload `json:"productData,omitempty" yaml:"productData,omitempty"`
}

// ProductPrice holds the price block of a product card
type ProductPrice struct {
	Current  float64 `json:"current" yaml:"current"`
	Original float64 `json:"original,omitempty" yaml:"original,omitempty"`
	Currency string  `json:"currency" yaml:"currency"`
	Discount string  `json:"discount,omitempty" yaml:"discount,omitempty"`
}

// ProductImage holds the image block of a product card
type ProductImage struct {
	URL string `json:"url" yaml:"url"`
}

// ProductCardData is a single product returned by the backend
type ProductCardData struct {
	ID          string       `json:"id" yaml:"id"`
	SKU         string       `json:"sku" yaml:"sku"`
	Name        string       `json:"name" yaml:"name"`
	Price       ProductPrice `json:"price" yaml:"price"`
	Image       ProductImage `json:"image" yaml:"image"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	ProductURL  string       `json:"productUrl" yaml:"productUrl"`
	Unit        string       `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// ProductDisplayPayload is the structured product answer
type ProductDisplayPayload struct {
	Type     string            `json:"type" yaml:"type"`
	Message  string            `json:"message" yaml:"message"`
	Products []ProductCardData `json:"products" yaml:"products"`
}

// DecodeProductDisplay accepts any JSON object whose type is
// "product-display" and whose products field is an array. Cards that do not
// fit ProductCardData keep whatever fields did decode; ValidateProducts
// drops them later.
func DecodeProductDisplay(data []byte) (*ProductDisplayPayload, bool) {
	if !gjson.ValidBytes(data) {
		return nil, false
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, false
	}
	typ := root.Get("type")
	if typ.Type != gjson.String || typ.Str != ProductDisplayType {
		return nil, false
	}
	products := root.Get("products")
	if !products.IsArray() {
		return nil, false
	}

	payload := &ProductDisplayPayload{
		Type:     ProductDisplayType,
		Products: []ProductCardData{},
	}
	if msg := root.Get("message"); msg.Type == gjson.String {
		payload.Message = msg.Str
	}
	for _, item := range products.Array() {
		var card ProductCardData
		if err := json.Unmarshal([]byte(item.Raw), &card); err != nil {
			LogDebug("product card decoded partially: %v", err)
		}
		card.ID = cardKey(item.Get("id"), card.ID)
		card.SKU = cardKey(item.Get("sku"), card.SKU)
		payload.Products = append(payload.Products, card)
	}
	return payload, true
}

// cardKey accepts numeric ids and SKUs as their JSON text. Zero counts as
// missing.
func cardKey(v gjson.Result, decoded string) string {
	if decoded != "" || v.Type != gjson.Number || v.Num == 0 {
		return decoded
	}
	return v.Raw
}

// FunctionCall is a tool invocation announced by an agent
type FunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
	ID   string          `json:"id,omitempty"`
}

// FunctionResponse is the result of a tool invocation
type FunctionResponse struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response,omitempty"`
	ID       string          `json:"id,omitempty"`
}

// Result returns response.result when it is a string.
func (fr *FunctionResponse) Result() (string, bool) {
	if fr == nil || len(fr.Response) == 0 {
		return "", false
	}
	r := gjson.GetBytes(fr.Response, "result")
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// ExtractedEventData is the normalized view of one backend event
type ExtractedEventData struct {
	TextParts           []string
	Agent               string
	FinalReport         *string
	CoordinatorResponse *string
	FunctionCall        *FunctionCall
	FunctionResponse    *FunctionResponse
	SourceCount         *int
	TotalTokens         *int64
}

// IsEmpty reports whether the event carried nothing the accumulator uses.
func (e ExtractedEventData) IsEmpty() bool {
	return len(e.TextParts) == 0 && e.Agent == "" && e.FinalReport == nil &&
		e.CoordinatorResponse == nil && e.FunctionCall == nil &&
		e.FunctionResponse == nil && e.SourceCount == nil && e.TotalTokens == nil
}

// MessageKind distinguishes parser outcomes
type MessageKind string

const (
	MessageKindText           MessageKind = "text"
	MessageKindProductDisplay MessageKind = "product-display"
)

// ParsedMessage is the render-ready form of an assistant message
type ParsedMessage struct {
	Kind        MessageKind
	Text        string
	ProductData *ProductDisplayPayload
	// Strategy names the detector that located the payload, empty for text.
	Strategy string
}
