package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractBarcode", func() {
	var (
		text      string
		candidate *BarcodeCandidate
	)

	JustBeforeEach(func() {
		candidate = ExtractBarcode(text)
	})

	When("the text is only a 12-digit run", func() {
		BeforeEach(func() {
			text = "041196910756"
		})

		It("extracts it with fixed confidence", func() {
			Expect(candidate).NotTo(BeNil())
			Expect(candidate.Code).To(Equal("041196910756"))
			Expect(candidate.Confidence).To(Equal(0.9))
		})
	})

	When("the run is buried in a long line of prose", func() {
		BeforeEach(func() {
			text = "Call our friendly support line any time at 041196910756 for help with orders"
		})

		It("rejects it", func() {
			Expect(candidate).To(BeNil())
		})
	})

	When("the run shares a long line with a little extra text", func() {
		BeforeEach(func() {
			// over 30 characters, but fewer than 24 of them are not whitespace
			text = "UPC                    041196910756"
		})

		It("accepts it because the run dominates the line", func() {
			Expect(candidate).NotTo(BeNil())
			Expect(candidate.Code).To(Equal("041196910756"))
		})
	})

	When("the first run is buried and a later one stands alone", func() {
		BeforeEach(func() {
			text = "Lot number 111122223333 printed on the side panel of the box\n041196910756"
		})

		It("returns the standalone run", func() {
			Expect(candidate).NotTo(BeNil())
			Expect(candidate.Code).To(Equal("041196910756"))
		})
	})

	When("both a UPC-A and an EAN-8 run are present", func() {
		BeforeEach(func() {
			text = "96385074\n041196910756"
		})

		It("prefers the UPC-A pattern", func() {
			Expect(candidate.Code).To(Equal("041196910756"))
		})
	})

	When("the only run is a 13-digit EAN", func() {
		BeforeEach(func() {
			text = "EAN\n5901234123457"
		})

		It("extracts the EAN-13 run", func() {
			Expect(candidate).NotTo(BeNil())
			Expect(candidate.Code).To(Equal("5901234123457"))
		})
	})

	When("the digits are printed in two spaced groups", func() {
		BeforeEach(func() {
			text = "87436    12389"
		})

		It("normalizes the spacing", func() {
			Expect(candidate).NotTo(BeNil())
			Expect(candidate.Code).To(Equal("87436 12389"))
		})
	})

	When("the text looks like a receipt", func() {
		BeforeEach(func() {
			text = "TOTAL $5.08\nTAX $0.38\n041196910756"
		})

		It("refuses to extract", func() {
			Expect(candidate).To(BeNil())
		})
	})

	When("the text has receipt keywords and prices without a currency sign", func() {
		BeforeEach(func() {
			text = "TOTAL 12.50 3.00\n041196910756"
		})

		It("still extracts the barcode", func() {
			Expect(candidate).NotTo(BeNil())
			Expect(candidate.Code).To(Equal("041196910756"))
			Expect(candidate.Confidence).To(Equal(BarcodeConfidence))
		})
	})

	When("the text has receipt keywords but one price", func() {
		BeforeEach(func() {
			text = "Store pickup\n041196910756\n$4.99"
		})

		It("still extracts the barcode", func() {
			Expect(candidate).NotTo(BeNil())
		})
	})

	When("there are no digit runs", func() {
		BeforeEach(func() {
			text = "fresh produce"
		})

		It("returns nil", func() {
			Expect(candidate).To(BeNil())
		})
	})

	When("the run is longer than any barcode", func() {
		BeforeEach(func() {
			text = "12345678901234567"
		})

		It("returns nil", func() {
			Expect(candidate).To(BeNil())
		})
	})
})
