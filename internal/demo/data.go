package demo

// emailDomain is used for generated personal and work addresses.
const emailDomain = "globalhrm.test"

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda",
	"David", "Elizabeth", "William", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
	"Thomas", "Sarah", "Charles", "Karen", "Daniel", "Nancy", "Matthew", "Betty",
	"Anthony", "Margaret", "Amara", "Kwame", "Nimali", "Kasun", "Ishara", "Tharindu",
	"Priya", "Arjun", "Mei", "Hiroshi", "Sofia", "Mateo", "Aisha", "Omar",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Taylor", "Moore",
	"Perera", "Fernando", "Silva", "Jayasinghe", "Bandara", "Wickramasinghe", "Patel", "Nguyen",
	"Kim", "Tanaka", "Okafor", "Mensah", "Haddad", "Kowalski",
}

var genders = []string{"Female", "Male", "Non-binary"}

var cities = []string{
	"Colombo", "Kandy", "Galle", "London", "Manchester", "New York", "Chicago",
	"Austin", "Toronto", "Singapore", "Sydney", "Berlin", "Amsterdam", "Dublin",
}

var streetNames = []string{
	"Main", "Oak", "Lake", "Hill", "Temple", "Station", "Park", "Church",
	"Galle", "Flower", "Union", "Queen", "King", "Mill",
}

var streetSuffixes = []string{"Road", "Street", "Avenue", "Lane", "Place"}

var departments = []string{
	"Engineering", "Finance", "People Operations", "Sales", "Marketing",
	"Customer Success", "Legal", "Facilities",
}

var designations = []string{
	"Software Engineer", "Senior Software Engineer", "Engineering Manager",
	"QA Engineer", "Business Analyst", "HR Executive", "HR Manager",
	"Accountant", "Finance Manager", "Sales Executive", "Account Manager",
	"Marketing Specialist", "Support Engineer", "Legal Counsel", "Office Administrator",
}
