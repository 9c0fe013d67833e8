package config

// DefaultWorkflow returns the pipeline layout of the production Bitrix24
// portal: collection is category 14, negativation is category 16.
func DefaultWorkflow() Workflow {
	return Workflow{
		Collection: CollectionPipeline{
			CategoryID:           "14",
			AwaitingNegativation: "C14:6",
			Blocked:              "C14:7",
			Processing:           "C14:PREPARATION",
			Won:                  "C14:WON",
		},
		Negativation: NegativationPipeline{
			CategoryID:                "16",
			New:                       "C16:NEW",
			Preparation:               "C16:PREPARATION",
			FinalInvoice:              "C16:FINAL_INVOICE",
			Lost:                      "C16:LOSE",
			Executing:                 "C16:EXECUTING",
			Won:                       "C16:WON",
			AwaitingSettlementInvoice: "C16:PREPAYMENT_INVOIC",
			ClosedOut:                 "C16:1",
		},
		Fields: Fields{
			ExternalID:           "UF_CRM_1732556583",
			TitlesToReport:       "UF_CRM_1739193194466",
			CorrespondenceStatus: "UF_CRM_1755287872064",
		},
		Status: StatusValues{
			Requested: "258",
			Reported:  "250",
			Retracted: "252",
		},
		Passthrough: []Passthrough{
			{From: "TITLE"},                // client name
			{From: "UF_CRM_1732556583"},    // external id
			{From: "UF_CRM_1717013491407"}, // client id
			{From: "UF_CRM_664E0602C9B87"}, // CNPJ/CPF
			{From: "UF_CRM_1732556420"},    // collection owner
			{From: "UF_CRM_1732556462"},    // negativation owner
			{From: "UF_CRM_1732556235"},    // HCG seller id
			{From: "UF_CRM_1732556265"},    // HCG seller name
			{From: "UF_CRM_1733856514"},    // HIPERCG seller id
			{From: "UF_CRM_1733856494"},    // HIPERCG seller name
			{From: "ASSIGNED_BY_ID"},
			{From: "CONTACT_ID", To: "CONTACT_IDS"},
		},
		OriginSets: []OriginSet{
			{
				Name: "rj",
				Fields: []string{
					"UF_CRM_1745350930427", "UF_CRM_1745350938898", "UF_CRM_1745351181",
					"UF_CRM_1745351211", "UF_CRM_1745351248", "UF_CRM_1745351275",
					"UF_CRM_1745351301", "UF_CRM_1745351327", "UF_CRM_1745351352",
					"UF_CRM_1745351376", "UF_CRM_1745351405", "UF_CRM_1745351431",
					"UF_CRM_1745351489", "UF_CRM_1745351517", "UF_CRM_1745351546",
				},
			},
			{
				Name: "proton",
				Fields: []string{
					"UF_CRM_1755280142", "UF_CRM_1755280154", "UF_CRM_1755280163",
					"UF_CRM_1755280173", "UF_CRM_1755280182", "UF_CRM_1755280199",
					"UF_CRM_1755280209", "UF_CRM_1755280219", "UF_CRM_1755280241",
					"UF_CRM_1755280251", "UF_CRM_1755280507", "UF_CRM_1755280259",
					"UF_CRM_1755280270", "UF_CRM_1755280281", "UF_CRM_1755280298",
				},
			},
		},
		StrictCollectionMatch: true,
	}
}
