package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewExtractor", func() {
	It("builds the LLM extractor when a generator is given", func() {
		extractor, err := NewExtractor(ExtractorLLM, &mockGenerator{})
		Expect(err).NotTo(HaveOccurred())
		Expect(extractor).To(BeAssignableToTypeOf(&LLMExtractor{}))
	})

	It("refuses the LLM mode without a generator", func() {
		_, err := NewExtractor(ExtractorLLM, nil)
		Expect(err).To(MatchError(ContainSubstring("requires a text generator")))
	})

	It("builds the local extractor without a generator", func() {
		extractor, err := NewExtractor(ExtractorLocal, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(extractor).To(BeAssignableToTypeOf(&LocalExtractor{}))
	})

	It("rejects unknown modes", func() {
		_, err := NewExtractor("regex", nil)
		Expect(err).To(MatchError(ContainSubstring(`unknown extractor mode "regex"`)))
	})
})

var _ = Describe("LLMExtractor", func() {
	var (
		generator *mockGenerator
		extractor *LLMExtractor
		items     []RawLineItem
		err       error
		text      string
	)

	BeforeEach(func() {
		generator = &mockGenerator{}
		extractor = NewLLMExtractor(generator)
		text = scenarioReceipt
	})

	JustBeforeEach(func() {
		items, err = extractor.Extract(context.Background(), text)
	})

	When("the model returns a fenced array", func() {
		BeforeEach(func() {
			generator.response = "```json\n[{\"name\":\"Bananas\",\"quantity\":1.2,\"unit\":\"lbs\",\"price\":0.71,\"category\":\"Produce\"}]\n```"
		})

		It("parses the items", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("Bananas"))
			Expect(items[0].Quantity).To(Equal(1.2))
			Expect(*items[0].Price).To(Equal(0.71))
		})

		It("sends the receipt text inside the prompt", func() {
			Expect(generator.prompts).To(HaveLen(1))
			Expect(generator.prompts[0]).To(ContainSubstring("Receipt Text:\n" + scenarioReceipt))
			Expect(generator.prompts[0]).To(HaveSuffix("JSON Response:"))
		})
	})

	When("the model fails", func() {
		BeforeEach(func() {
			generator.err = errors.New("quota exceeded")
		})

		It("returns a wrapped error", func() {
			Expect(err).To(MatchError(ContainSubstring("generating line items")))
			Expect(err).To(MatchError(ContainSubstring("quota exceeded")))
		})
	})

	When("the model returns no array", func() {
		BeforeEach(func() {
			generator.response = "I could not read this receipt."
		})

		It("returns a parse error", func() {
			Expect(err).To(MatchError(errNoJSONArray))
		})
	})

	When("the text is blank", func() {
		BeforeEach(func() {
			text = "  "
		})

		It("does not call the model", func() {
			Expect(err).To(MatchError(errNoText))
			Expect(generator.prompts).To(BeEmpty())
		})
	})
})

var _ = Describe("parseLineItems", func() {
	It("skips prose brackets before the array", func() {
		items, err := parseLineItems(`Here you go [see below]: [{"name":"Milk","quantity":1,"unit":"item","price":3.99,"category":"Dairy"}]`)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(1))
		Expect(items[0].Name).To(Equal("Milk"))
	})

	It("ignores brackets inside string values", func() {
		items, err := parseLineItems(`[{"name":"Chips [family size]","quantity":1,"unit":"item","price":4.29,"category":"Snacks"}]`)
		Expect(err).NotTo(HaveOccurred())
		Expect(items[0].Name).To(Equal("Chips [family size]"))
	})

	It("moves past an unclosed bracket", func() {
		items, err := parseLineItems("[unfinished\n[]")
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})

	It("fails when there is no bracket at all", func() {
		_, err := parseLineItems("nothing here")
		Expect(err).To(MatchError(errNoJSONArray))
	})
})

var _ = Describe("RawLineItem decoding", func() {
	var item RawLineItem

	It("decodes a well-formed object", func() {
		Expect(json.Unmarshal([]byte(`{"name":" Eggs ","quantity":12,"unit":"item","price":2.5,"category":"Dairy"}`), &item)).To(Succeed())
		Expect(item.Name).To(Equal("Eggs"))
		Expect(item.Quantity).To(Equal(12.0))
		Expect(*item.Price).To(Equal(2.5))
	})

	It("marks a non-numeric quantity as NaN", func() {
		Expect(json.Unmarshal([]byte(`{"name":"Eggs","quantity":"a dozen","unit":"item","category":"Dairy"}`), &item)).To(Succeed())
		Expect(math.IsNaN(item.Quantity)).To(BeTrue())
	})

	It("leaves a missing or invalid price unset", func() {
		Expect(json.Unmarshal([]byte(`{"name":"Eggs","quantity":1,"unit":"item","price":"free","category":"Dairy"}`), &item)).To(Succeed())
		Expect(item.Price).To(BeNil())
	})

	It("empties string fields of the wrong type", func() {
		Expect(json.Unmarshal([]byte(`{"name":42,"quantity":1,"unit":null,"category":["Dairy"]}`), &item)).To(Succeed())
		Expect(item.Name).To(BeEmpty())
		Expect(item.Unit).To(BeEmpty())
		Expect(item.Category).To(BeEmpty())
	})
})
