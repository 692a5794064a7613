package catalog

import "github.com/ethanolivertroy/annexa/internal/model"

// ISO/IEC 27001:2013 Annex A control objectives
// https://www.iso.org/standard/54534.html

// AnnexA is the built-in catalog, in standard order. Risk weights follow
// DefaultWeight; required evidence and keywords reflect common audit practice.
var AnnexA = []model.Control{
	// A.5 Information security policies
	{
		ID:               "A.5.1",
		Title:            "Management direction for information security",
		Description:      "A set of policies for information security shall be defined, approved by management, published and communicated to employees and relevant external parties, and reviewed at planned intervals.",
		Category:         "Information security policies",
		RequiredEvidence: []string{"policy_approval", "policy_review_record"},
		RequiredKeywords: []string{"information security policy", "management approval", "review"},
	},

	// A.6 Organization of information security
	{
		ID:               "A.6.1",
		Title:            "Internal organization",
		Description:      "A management framework shall be established to initiate and control the implementation and operation of information security within the organization, with defined roles, responsibilities and segregation of duties.",
		Category:         "Organization of information security",
		RequiredEvidence: []string{"roles_matrix"},
		RequiredKeywords: []string{"roles", "responsibilities", "segregation of duties"},
	},
	{
		ID:               "A.6.2",
		Title:            "Mobile devices and teleworking",
		Description:      "A policy and supporting security measures shall be adopted to manage the risks introduced by using mobile devices and to protect information accessed, processed or stored at teleworking sites.",
		Category:         "Organization of information security",
		RequiredEvidence: []string{"mdm_config"},
		RequiredKeywords: []string{"mobile device", "teleworking"},
	},

	// A.7 Human resource security
	{
		ID:               "A.7.1",
		Title:            "Prior to employment",
		Description:      "Background verification checks on all candidates for employment shall be carried out and contractual agreements shall state employee responsibilities for information security.",
		Category:         "Human resource security",
		RequiredEvidence: []string{"screening_record"},
		RequiredKeywords: []string{"background verification", "terms and conditions of employment"},
	},
	{
		ID:               "A.7.2",
		Title:            "During employment",
		Description:      "Employees and contractors shall receive appropriate information security awareness education and training and be aware of a formal disciplinary process.",
		Category:         "Human resource security",
		RequiredEvidence: []string{"training_record"},
		RequiredKeywords: []string{"awareness", "training", "disciplinary process"},
	},
	{
		ID:               "A.7.3",
		Title:            "Termination and change of employment",
		Description:      "Information security responsibilities and duties that remain valid after termination or change of employment shall be defined, communicated and enforced.",
		Category:         "Human resource security",
		RequiredEvidence: []string{"offboarding_checklist"},
		RequiredKeywords: []string{"termination", "change of employment"},
	},

	// A.8 Asset management
	{
		ID:               "A.8.1",
		Title:            "Responsibility for assets",
		Description:      "Assets associated with information and information processing facilities shall be identified, an inventory of these assets shall be drawn up and maintained, and assets shall have owners and rules for acceptable use.",
		Category:         "Asset management",
		RequiredEvidence: []string{"asset_inventory"},
		RequiredKeywords: []string{"asset inventory", "asset owner", "acceptable use"},
	},
	{
		ID:               "A.8.2",
		Title:            "Information classification",
		Description:      "Information shall be classified in terms of legal requirements, value, criticality and sensitivity to unauthorised disclosure or modification, and labelled and handled accordingly.",
		Category:         "Asset management",
		RequiredEvidence: []string{"classification_scheme"},
		RequiredKeywords: []string{"classification", "labelling", "handling"},
	},
	{
		ID:               "A.8.3",
		Title:            "Media handling",
		Description:      "Procedures shall be implemented for the management of removable media, media shall be disposed of securely when no longer required, and media containing information shall be protected during transportation.",
		Category:         "Asset management",
		RequiredEvidence: []string{"media_disposal_log"},
		RequiredKeywords: []string{"removable media", "disposal"},
	},

	// A.9 Access control
	{
		ID:               "A.9.1",
		Title:            "Business requirements of access control",
		Description:      "An access control policy shall be established, documented and reviewed based on business and information security requirements, and users shall only be provided with access to the network and network services they have been specifically authorized to use.",
		Category:         "Access control",
		RequiredEvidence: []string{"access_log"},
		RequiredKeywords: []string{"access control"},
	},
	{
		ID:               "A.9.2",
		Title:            "User access management",
		Description:      "A formal user registration, de-registration and access provisioning process shall be implemented, privileged access rights shall be restricted and controlled, and asset owners shall review users' access rights at regular intervals.",
		Category:         "Access control",
		RequiredEvidence: []string{"access_review_record", "provisioning_tickets"},
		RequiredKeywords: []string{"user registration", "privileged access", "access review"},
	},
	{
		ID:               "A.9.3",
		Title:            "User responsibilities",
		Description:      "Users shall be required to follow the organization's practices in the use of secret authentication information.",
		Category:         "Access control",
		RequiredKeywords: []string{"password", "secret authentication information"},
	},
	{
		ID:               "A.9.4",
		Title:            "System and application access control",
		Description:      "Access to information and application system functions shall be restricted, secure log-on procedures and password management systems shall be used, and the use of privileged utility programs shall be restricted.",
		Category:         "Access control",
		RequiredEvidence: []string{"access_log", "mfa_config"},
		RequiredKeywords: []string{"secure log-on", "password management", "multi-factor authentication"},
	},

	// A.10 Cryptography
	{
		ID:               "A.10.1",
		Title:            "Cryptographic controls",
		Description:      "A policy on the use of cryptographic controls for protection of information and a policy on the use, protection and lifetime of cryptographic keys shall be developed and implemented.",
		Category:         "Cryptography",
		RequiredEvidence: []string{"encryption_config", "key_inventory"},
		RequiredKeywords: []string{"encryption", "key management"},
	},

	// A.11 Physical and environmental security
	{
		ID:               "A.11.1",
		Title:            "Physical and environmental security - secure areas",
		Description:      "Security perimeters shall be defined and used to protect areas that contain sensitive information, secure areas shall be protected by appropriate entry controls, and physical protection against natural disasters shall be applied.",
		Category:         "Physical and environmental security",
		RequiredEvidence: []string{"badge_access_log"},
		RequiredKeywords: []string{"physical security perimeter", "entry controls"},
	},
	{
		ID:               "A.11.2",
		Title:            "Equipment",
		Description:      "Equipment shall be sited and protected, supporting utilities maintained, equipment correctly maintained, and storage media securely wiped or destroyed prior to disposal or re-use.",
		Category:         "Physical and environmental security",
		RequiredEvidence: []string{"maintenance_log"},
		RequiredKeywords: []string{"equipment maintenance", "secure disposal", "clear desk"},
	},

	// A.12 Operations security
	{
		ID:               "A.12.1",
		Title:            "Operational procedures and responsibilities",
		Description:      "Operating procedures shall be documented and made available, changes shall be controlled, capacity shall be monitored, and development, testing and operational environments shall be separated.",
		Category:         "Operations security",
		RequiredEvidence: []string{"change_tickets"},
		RequiredKeywords: []string{"change management", "capacity management"},
	},
	{
		ID:               "A.12.2",
		Title:            "Protection from malware",
		Description:      "Detection, prevention and recovery controls to protect against malware shall be implemented, combined with appropriate user awareness.",
		Category:         "Operations security",
		RequiredEvidence: []string{"antimalware_config"},
		RequiredKeywords: []string{"malware"},
	},
	{
		ID:               "A.12.3",
		Title:            "Backup",
		Description:      "Backup copies of information, software and system images shall be taken and tested regularly in accordance with an agreed backup policy.",
		Category:         "Operations security",
		RequiredEvidence: []string{"backup_log", "restore_test"},
		RequiredKeywords: []string{"backup", "restore test"},
	},
	{
		ID:               "A.12.4",
		Title:            "Logging and monitoring",
		Description:      "Event logs recording user activities, exceptions, faults and information security events shall be produced, kept, protected and regularly reviewed, and clocks shall be synchronised.",
		Category:         "Operations security",
		RequiredEvidence: []string{"siem_config", "log_review_record"},
		RequiredKeywords: []string{"event logging", "log review", "clock synchronisation"},
	},
	{
		ID:               "A.12.5",
		Title:            "Control of operational software",
		Description:      "Procedures shall be implemented to control the installation of software on operational systems.",
		Category:         "Operations security",
		RequiredKeywords: []string{"software installation"},
	},
	{
		ID:               "A.12.6",
		Title:            "Technical vulnerability management",
		Description:      "Information about technical vulnerabilities of information systems shall be obtained in a timely fashion, exposure evaluated and appropriate measures taken, and rules governing software installation by users established.",
		Category:         "Operations security",
		RequiredEvidence: []string{"vulnerability_scan"},
		RequiredKeywords: []string{"vulnerability management", "patch"},
	},
	{
		ID:               "A.12.7",
		Title:            "Information systems audit considerations",
		Description:      "Audit requirements and activities involving verification of operational systems shall be carefully planned and agreed to minimise disruptions to business processes.",
		Category:         "Operations security",
		RequiredKeywords: []string{"audit"},
	},

	// A.13 Communications security
	{
		ID:               "A.13.1",
		Title:            "Network security management",
		Description:      "Networks shall be managed and controlled to protect information in systems and applications, security mechanisms and service levels of network services shall be identified, and groups of services, users and systems shall be segregated.",
		Category:         "Communications security",
		RequiredEvidence: []string{"firewall_config", "network_diagram"},
		RequiredKeywords: []string{"network security", "segregation"},
	},
	{
		ID:               "A.13.2",
		Title:            "Information transfer",
		Description:      "Formal transfer policies, procedures and controls shall be in place to protect the transfer of information through all types of communication facilities, including agreements, electronic messaging and confidentiality agreements.",
		Category:         "Communications security",
		RequiredEvidence: []string{"nda_register"},
		RequiredKeywords: []string{"information transfer", "confidentiality agreement"},
	},

	// A.14 System acquisition, development and maintenance
	{
		ID:               "A.14.1",
		Title:            "Security requirements of information systems",
		Description:      "Information security related requirements shall be included in the requirements for new information systems or enhancements to existing information systems, including services passing over public networks.",
		Category:         "System acquisition, development and maintenance",
		RequiredKeywords: []string{"security requirements"},
	},
	{
		ID:               "A.14.2",
		Title:            "Security in development and support processes",
		Description:      "Rules for the development of software and systems shall be established, changes controlled, secure engineering principles applied and security functionality tested during development.",
		Category:         "System acquisition, development and maintenance",
		RequiredEvidence: []string{"code_review_record", "security_test_report"},
		RequiredKeywords: []string{"secure development", "security testing"},
	},
	{
		ID:               "A.14.3",
		Title:            "Test data",
		Description:      "Test data shall be selected carefully, protected and controlled.",
		Category:         "System acquisition, development and maintenance",
		RequiredKeywords: []string{"test data"},
	},

	// A.15 Supplier relationships
	{
		ID:               "A.15.1",
		Title:            "Information security in supplier relationships",
		Description:      "Information security requirements for mitigating the risks associated with supplier's access to the organization's assets shall be agreed with the supplier and documented in supplier agreements.",
		Category:         "Supplier relationships",
		RequiredEvidence: []string{"supplier_agreements"},
		RequiredKeywords: []string{"supplier", "third party"},
	},
	{
		ID:               "A.15.2",
		Title:            "Supplier service delivery management",
		Description:      "Organizations shall regularly monitor, review and audit supplier service delivery and manage changes to the provision of services by suppliers.",
		Category:         "Supplier relationships",
		RequiredEvidence: []string{"supplier_review_record"},
		RequiredKeywords: []string{"supplier review"},
	},

	// A.16 Information security incident management
	{
		ID:               "A.16.1",
		Title:            "Management of information security incidents and improvements",
		Description:      "Responsibilities and procedures shall be established to ensure a quick, effective and orderly response to information security incidents, including reporting of events and weaknesses, assessment, response, learning and collection of evidence.",
		Category:         "Information security incident management",
		RequiredEvidence: []string{"incident_register", "incident_response_plan"},
		RequiredKeywords: []string{"incident response", "incident reporting"},
	},

	// A.17 Information security aspects of business continuity management
	{
		ID:               "A.17.1",
		Title:            "Information security continuity",
		Description:      "The organization shall determine its requirements for information security and the continuity of information security management in adverse situations, and shall plan, implement and verify continuity controls.",
		Category:         "Business continuity management",
		RequiredEvidence: []string{"bcp_test_report"},
		RequiredKeywords: []string{"business continuity", "disaster recovery"},
	},
	{
		ID:               "A.17.2",
		Title:            "Redundancies",
		Description:      "Information processing facilities shall be implemented with redundancy sufficient to meet availability requirements.",
		Category:         "Business continuity management",
		RequiredKeywords: []string{"redundancy", "availability"},
	},

	// A.18 Compliance
	{
		ID:               "A.18.1",
		Title:            "Compliance with legal and contractual requirements",
		Description:      "All relevant legislative, statutory, regulatory and contractual requirements and the organization's approach to meet them shall be identified, documented and kept up to date, including intellectual property rights, protection of records and privacy of personal data.",
		Category:         "Compliance",
		RequiredEvidence: []string{"legal_register"},
		RequiredKeywords: []string{"legal requirements", "privacy", "personal data"},
	},
	{
		ID:               "A.18.2",
		Title:            "Information security reviews",
		Description:      "The organization's approach to managing information security and its implementation shall be reviewed independently at planned intervals, and managers shall regularly review compliance of information processing within their area of responsibility.",
		Category:         "Compliance",
		RequiredEvidence: []string{"internal_audit_report"},
		RequiredKeywords: []string{"independent review", "compliance review"},
	},
}
