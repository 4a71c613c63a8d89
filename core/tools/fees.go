// Package tools provides the function tools the assistant can call while
// composing a reply.
package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/koscakluka/ema-voice/core/llms"
)

const FeeSubmissionGuideName = "fee_submission_guide"

type feeProcedure struct {
	title  string
	method string
	steps  []string
	note   string
}

var feeProcedures = map[string]feeProcedure{
	"central_government_institute": {
		title:  "Central Government Institutes (IIIT / IIT / NIT / IIM)",
		method: "SBI Collect / Official Institute Fee Portal",
		steps: []string{
			"Visit the official institute website",
			"Open the Fees or Payments section",
			"Click on Pay Fees via SBI Collect",
			"Select the State",
			"Select the Institute name",
			"Enter roll number, name, and semester",
			"Enter the payable fee amount",
			"Choose payment mode (UPI / Net Banking / Card)",
			"Complete the payment",
			"Download and save the payment receipt",
			"Upload receipt on institute portal if required",
		},
		note: "Fee payment is fully online. Cash is not accepted.",
	},
	"state_board_school": {
		title:  "State Board Schools (Government / Aided)",
		method: "School Accounts Section (Offline)",
		steps: []string{
			"Visit the school campus",
			"Go to the Accounts / Fee Counter",
			"Provide student name, class, and roll number",
			"Pay fees using cash, DD, or bank challan",
			"Accountant verifies the amount",
			"Fee entry is recorded in school register",
			"Collect the official fee receipt",
		},
		note: "Mostly offline payment method.",
	},
	"cbse_icse_private_school": {
		title:  "CBSE / ICSE Private Schools",
		method: "School ERP / Online Portal",
		steps: []string{
			"Login to the school ERP or parent portal",
			"Navigate to the Fee Payment section",
			"Check pending or due fees",
			"Select online payment method",
			"Complete the payment",
			"Download or print the receipt",
		},
		note: "Some schools allow limited offline payment.",
	},
	"central_government_school": {
		title:  "Central Government Schools (Kendriya Vidyalaya / JNV)",
		method: "KVS / Government Payment Portal",
		steps: []string{
			"Visit the KVS or respective school portal",
			"Click on Online Fee Payment",
			"Enter student details",
			"Confirm fee amount",
			"Make payment online",
			"Save the payment receipt",
		},
		note: "Cash payment is generally not allowed.",
	},
	"private_college_university": {
		title:  "Private Colleges / Universities",
		method: "University Student Portal",
		steps: []string{
			"Login to the student portal",
			"Open the Fees or Finance section",
			"Select academic year or semester",
			"Confirm payable amount",
			"Pay using online methods",
			"Download payment receipt",
		},
		note: "Payment confirmation is instant.",
	},
}

// FeeCategories lists the institute categories the fee guide knows, in a
// stable order.
func FeeCategories() []string {
	categories := make([]string, 0, len(feeProcedures))
	for category := range feeProcedures {
		categories = append(categories, category)
	}
	slices.Sort(categories)
	return categories
}

// FeeSubmissionGuide answers fee payment questions from a fixed set of
// procedures instead of the model's memory.
func FeeSubmissionGuide() llms.Tool {
	return llms.NewTool(FeeSubmissionGuideName,
		"Step-by-step fee submission procedure for a category of school or college. Use it for any question about paying or submitting fees.",
		map[string]llms.ParameterBase{
			"institute_category": {
				Type:        "string",
				Description: "Category of the school or college",
				Enum:        FeeCategories(),
			},
		},
		func(ctx context.Context, arguments struct {
			InstituteCategory string `json:"institute_category"`
		}) (string, error) {
			_, span := tracer.Start(ctx, "fee submission guide")
			defer span.End()
			return feeGuide(arguments.InstituteCategory), nil
		})
}

func feeGuide(category string) string {
	procedure, ok := feeProcedures[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		var b strings.Builder
		b.WriteString("Invalid institute category.\n\nValid categories:\n")
		for _, category := range FeeCategories() {
			fmt.Fprintf(&b, "- %s\n", category)
		}
		return strings.TrimSuffix(b.String(), "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nFee Payment Method: %s\n\nStep-by-Step Fee Submission:\n", procedure.title, procedure.method)
	for i, step := range procedure.steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	fmt.Fprintf(&b, "\nNote: %s", procedure.note)
	return b.String()
}
