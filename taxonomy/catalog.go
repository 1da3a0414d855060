// Package taxonomy holds the fixed catalog of suggested blog categories.
//
// The catalog only drives authoring-time suggestions. Posts may carry any category text; nothing
// on the write path consults this package.
package taxonomy

import "strings"

// Group is a themed run of catalog labels.
type Group struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}

var groups = []Group{
	{"AI & Data", []string{
		"Artificial Intelligence", "Machine Learning", "Deep Learning", "Natural Language Processing", "Computer Vision",
		"Data Science", "Data Analytics", "Big Data", "Data Engineering", "Business Intelligence",
	}},
	{"Web & Mobile", []string{
		"Web Development", "Frontend Development", "Backend Development", "Full Stack Development",
		"Mobile Development", "iOS Development", "Android Development", "React Native", "Flutter",
	}},
	{"Cloud & DevOps", []string{
		"Cloud Computing", "AWS", "Azure", "Google Cloud", "Cloud Architecture",
		"DevOps", "CI/CD", "Docker", "Kubernetes", "Jenkins", "Terraform",
	}},
	{"Security", []string{
		"Cybersecurity", "Ethical Hacking", "Penetration Testing", "Network Security", "Information Security",
	}},
	{"Blockchain", []string{
		"Blockchain", "Cryptocurrency", "Smart Contracts", "Web3", "NFT",
	}},
	{"Hardware", []string{
		"Internet of Things", "Embedded Systems", "Robotics", "Arduino", "Raspberry Pi",
	}},
	{"Databases", []string{
		"Database", "SQL", "NoSQL", "MongoDB", "PostgreSQL", "MySQL", "Redis",
	}},
	{"Languages", []string{
		"Programming Languages", "JavaScript", "Python", "Java", "C++", "C#", "Go", "Rust", "PHP", "Ruby", "Swift", "Kotlin",
	}},
	{"Frameworks", []string{
		"Frameworks", "React", "Angular", "Vue.js", "Node.js", "Express.js", "Django", "Flask", "Spring Boot", "Laravel",
	}},
	{"Design", []string{
		"UI/UX Design", "Graphic Design", "Product Design", "Figma", "Adobe XD",
	}},
	{"Games", []string{
		"Game Development", "Unity", "Unreal Engine", "Game Design",
	}},
	{"Engineering", []string{
		"Software Engineering", "Software Architecture", "Design Patterns", "Microservices", "System Design",
	}},
	{"Testing", []string{
		"Testing", "Software Testing", "Test Automation", "QA", "Selenium",
	}},
	{"APIs", []string{
		"API Development", "REST API", "GraphQL", "API Design",
	}},
	{"Version Control", []string{
		"Version Control", "Git", "GitHub", "GitLab", "Bitbucket",
	}},
	{"Systems", []string{
		"Operating Systems", "Linux", "Windows", "macOS", "Unix",
		"Networking", "Network Engineering", "TCP/IP", "DNS", "VPN",
	}},
	{"Algorithms", []string{
		"Algorithms", "Data Structures", "Competitive Programming", "Problem Solving",
	}},
	{"Process", []string{
		"Agile", "Scrum", "Project Management", "Kanban",
	}},
	{"Career", []string{
		"Career", "Interview Preparation", "Coding Interview", "Tech Career",
	}},
	{"Community", []string{
		"Open Source", "Contributing", "GitHub Projects",
	}},
	{"Quality", []string{
		"Performance Optimization", "Code Quality", "Best Practices",
	}},
	{"Other", []string{
		"Other",
	}},
}

var (
	labels = flatten(groups)
	index  = indexLabels(labels)
)

func flatten(gs []Group) []string {
	var out []string
	for _, g := range gs {
		out = append(out, g.Labels...)
	}
	return out
}

func indexLabels(ls []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ls))
	for _, l := range ls {
		m[l] = struct{}{}
	}
	return m
}

// Labels returns every catalog label in display order.
func Labels() []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Groups returns the catalog grouped by theme.
func Groups() []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = Group{Name: g.Name, Labels: append([]string(nil), g.Labels...)}
	}
	return out
}

// Contains is an exact, case-sensitive membership test.
func Contains(label string) bool {
	_, ok := index[label]
	return ok
}

// Search returns the labels containing query, ignoring case, in catalog order.
// An empty query matches everything.
func Search(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Labels()
	}

	out := []string{}
	for _, l := range labels {
		if strings.Contains(strings.ToLower(l), q) {
			out = append(out, l)
		}
	}
	return out
}
