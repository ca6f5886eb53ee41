package seed

import (
	"github.com/geocoder89/projecthub/internal/domain/catalog"
	"github.com/geocoder89/projecthub/internal/domain/skill"
)

// Common technical skills per the StackOverflow 2019 survey.
var sampleSkills = []skill.CreateSkillRequest{
	{Name: "Python", Description: "An general purpose Object Oriented language"},
	{Name: "C++", Description: "Low Level Programming Language"},
	{Name: "Javascript", Description: "Web Development Language"},
	{Name: "Koitlin", Description: "Mobile development"},
}

type skillPick struct {
	name        string
	proficiency int
}

type sampleUser struct {
	first, last, email string
	skills             [3]skillPick
}

var sampleUsers = []sampleUser{
	{
		first: "daniel", last: "bae", email: "dan@gmail.com",
		skills: [3]skillPick{{"Python", 4}, {"C++", 3}, {"Javascript", 2}},
	},
	{
		first: "simon", last: "says", email: "jeff@gmail.com",
		skills: [3]skillPick{{"C++", 3}, {"Python", 4}, {"Koitlin", 2}},
	},
	{
		first: "jeff", last: "williams", email: "jw@gmail.com",
		skills: [3]skillPick{{"Koitlin", 3}, {"Javascript", 4}, {"C++", 2}},
	},
}

type sampleProject struct {
	name, desc string
	members    []string // emails
}

var sampleProjects = []sampleProject{
	{
		name:    "Lets make a React App!!!",
		desc:    "Welcome all levels of exp, just looking to get expossure to react",
		members: []string{"dan@gmail.com", "jeff@gmail.com", "jw@gmail.com"},
	},
	{
		name:    "Anyone looking to get started with mobile development?",
		desc:    "Currently interested in Koitlin dev, but open to other stacks as well!",
		members: []string{"jw@gmail.com"},
	},
}

type sampleEntry struct {
	kind catalog.Kind
	req  catalog.CreateEntryRequest
}

var sampleCatalog = []sampleEntry{
	{catalog.KindField, catalog.CreateEntryRequest{Name: "Front-End", Description: "User interface"}},
	{catalog.KindField, catalog.CreateEntryRequest{Name: "Back-End", Description: "Servers"}},
	{catalog.KindInterest, catalog.CreateEntryRequest{Name: "Medical", Description: "Genteics, Medical imaging, etc."}},
	{catalog.KindInterest, catalog.CreateEntryRequest{Name: "Space", Description: "Simulations, Robotics, Computer vision"}},
}
