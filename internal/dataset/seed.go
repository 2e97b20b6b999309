package dataset

// seedRecords is the curated source. It can be extended with scraped
// records later; for reliability the service serves this list first.
func seedRecords() Snapshot {
	return Snapshot{
		{
			FieldJurisdiction:    "South Africa – Department of Mineral Resources & Energy (DMRE)",
			FieldCountry:         "South Africa",
			FieldTitle:           "Mine Health and Safety Act: Trackless Mobile Machinery – Commencement of sub-regulations 8.10.1.2(b) and 8.10.2.1(b)",
			FieldType:            CategoryMandate,
			FieldPublicationDate: "2022-12-21",
			FieldStatus:          "In force",
			FieldScope:           "L9",
			FieldURL:             "https://www.gov.za/sites/default/files/gcis_document/202212/47790gon2908.pdf",
			FieldNotes:           "Mandates automatic retard/stop for diesel TMMs when no action taken to prevent collision.",
		},
		{
			FieldJurisdiction:    "US Department of Labor – MSHA (Federal Register)",
			FieldCountry:         "United States",
			FieldTitle:           "Proximity Detection Systems for Continuous Mining Machines in Underground Coal Mines",
			FieldType:            CategoryMandate,
			FieldPublicationDate: "2015-01-15",
			FieldStatus:          "Final Rule (effective 2015-03-16)",
			FieldScope:           "L7|L8",
			FieldURL:             "https://www.federalregister.gov/documents/2015/01/15/2015-00319/proximity-detection-systems-for-continuous-mining-machines-in-underground-coal-mines",
			FieldNotes:           "30 CFR §75.1732; phased compliance by machine vintage.",
		},
		{
			FieldJurisdiction:    "US Department of Labor – MSHA",
			FieldCountry:         "United States",
			FieldTitle:           "MSHA News Release: 'Proximity detection final rule will save miners' lives'",
			FieldType:            CategoryMandate,
			FieldPublicationDate: "2015-01-13",
			FieldStatus:          "Announcement",
			FieldScope:           "L7|L8",
			FieldURL:             "https://www.dol.gov/newsroom/releases/msha/msha20150035",
			FieldNotes:           "",
		},
		{
			FieldJurisdiction:    "Resources Safety & Health Queensland (RSHQ)",
			FieldCountry:         "Australia",
			FieldTitle:           "Guidance Note QGN 27 – Collision Prevention (Revision 2)",
			FieldType:            CategorySubnational,
			FieldPublicationDate: "2024-04-01",
			FieldStatus:          "Guidance Note",
			FieldScope:           "General CAS",
			FieldURL:             "https://www.resources.qld.gov.au/__data/assets/pdf_file/0007/1346821/qld-guidance-note-27.pdf",
			FieldNotes:           "Technology types, traffic management, stopping distances, bowties.",
		},
		{
			FieldJurisdiction:    "NSW Resources Regulator",
			FieldCountry:         "Australia",
			FieldTitle:           "MDG 2007 – Guideline for the selection and implementation of collision management systems for mining",
			FieldType:            CategorySubnational,
			FieldPublicationDate: "2014-02-01",
			FieldStatus:          "Guideline",
			FieldScope:           "General CAS",
			FieldURL:             "https://www.resources.nsw.gov.au/sites/default/files/documents/mdg-2007-guideline-for-the-selection-and-implementation-of-collision-management-systems-for-mining-2014.pdf",
			FieldNotes:           "",
		},
		{
			FieldJurisdiction:    "WorkSafe WA – Department of Energy, Mines, Industry Regulation and Safety",
			FieldCountry:         "Australia",
			FieldTitle:           "Safe mobile autonomous mining in Western Australia – Code of practice",
			FieldType:            CategorySubnational,
			FieldPublicationDate: "2025-02-15",
			FieldStatus:          "Code of practice",
			FieldScope:           "General CAS",
			FieldURL:             "https://www.worksafe.wa.gov.au/publications/safe-mobile-autonomous-mining-western-australia-code-practice",
			FieldNotes:           "Covers integration of autonomous/semi-autonomous mobile systems and traffic risk.",
		},
		{
			FieldJurisdiction:    "International Organization for Standardization (ISO)",
			FieldCountry:         "International",
			FieldTitle:           "ISO 21815-1:2022 – Earth-moving machinery — Collision warning and avoidance — Part 1: General requirements",
			FieldType:            CategoryFramework,
			FieldPublicationDate: "2022-01-01",
			FieldStatus:          "Published",
			FieldScope:           "L7|L8|L9",
			FieldURL:             "https://www.iso.org/standard/77302.html",
			FieldNotes:           "Terminology, performance, testing for warning/advisory/intervention.",
		},
		{
			FieldJurisdiction:    "International Council on Mining & Metals (ICMM)",
			FieldCountry:         "International",
			FieldTitle:           "Innovation for Cleaner, Safer Vehicles (ICSV) – Vehicle interaction and collision avoidance ambition",
			FieldType:            CategoryFramework,
			FieldPublicationDate: "2024-01-01",
			FieldStatus:          "Program",
			FieldScope:           "General CAS",
			FieldURL:             "https://www.icmm.com/en-gb/our-work/cleaner-safer-vehicles",
			FieldNotes:           "Ambition to make collision avoidance solutions available at scale; collaboration with EMESRT.",
		},
		{
			FieldJurisdiction:    "British Columbia – WorkSafeBC / BC Laws",
			FieldCountry:         "Canada",
			FieldTitle:           "OHS Regulation – Part 16: Mobile Equipment (general regulatory obligations)",
			FieldType:            CategorySubnational,
			FieldPublicationDate: "2025-03-31",
			FieldStatus:          "Regulation (current consolidation)",
			FieldScope:           "General CAS",
			FieldURL:             "https://www.bclaws.gov.bc.ca/civix/document/id/complete/statreg/296_97_13",
			FieldNotes:           "Mobile equipment provisions that underpin traffic management at mines in BC.",
		},
	}
}
