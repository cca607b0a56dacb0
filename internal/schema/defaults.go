package schema

// defaults.go - built-in field listings for known 1.12 client tables
//
// These cover the commonly patched leading columns of each table. A
// schema directory entry for the same table replaces the whole listing.

var defaultSchemas = map[string][]string{
	"spell.dbc": {
		"id",
		"school",
		"category",
		"castui",
		"dispel",
		"mechanic",
		"attributes",
		"attributesex",
		"attributesex2",
		"attributesex3",
		"attributesex4",
		"stances",
		"stancesnot",
		"targets",
		"targetcreaturetype",
		"requiresspellfocus",
		"casteraurastate",
		"targetaurastate",
		"castingtimeindex",
		"recoverytime",
		"categoryrecoverytime",
	},
	"chrraces.dbc": {
		"id",
		"flags",
		"factionid",
		"explorationsound",
		"malemodel",
		"femalemodel",
		"clientprefix",
		"speed",
		"baselanguage",
		"creaturetype",
		"logineffectspellid",
		"combatstunspellid",
		"resspellid",
		"splashsoundid",
		"startingtaxinodes",
		"clientfilestring",
		"cinematicsequenceid",
		"name",
	},
	"talent.dbc": {
		"id",
		"tabid",
		"tierid",
		"columnindex",
		"spellrank1",
		"spellrank2",
		"spellrank3",
		"spellrank4",
		"spellrank5",
		"prereqtalent",
		"prereqrank",
		"flags",
		"requiredspellid",
	},
	"spellvisual.dbc": {
		"id",
		"precastkit",
		"castkit",
		"impactkit",
		"statekit",
		"channelkit",
		"hasmissile",
		"missilemodel",
		"missilepathtype",
		"missiledestinationattachment",
		"missilesound",
		"animeventsoundid",
		"flags",
		"casterimpactkit",
		"targetimpactkit",
	},
}
